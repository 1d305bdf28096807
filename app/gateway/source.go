package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// SummarySource computes a budget summary for a principal. The host wires in
// its persistence layer here; results are cached by the query cache.
type SummarySource interface {
	Summary(ctx context.Context, principal int64, budgetID string) (Summary, error)
}

// Summary is the aggregate served by the summary endpoint.
type Summary struct {
	BudgetID  string `json:"budget_id"`
	Principal int64  `json:"principal"`
	Limit     int64  `json:"limit"`
	Spent     int64  `json:"spent"`
	Remaining int64  `json:"remaining"`
}

// MemorySource is an in-process SummarySource keyed by budget ID.
type MemorySource struct {
	mu      sync.RWMutex
	budgets map[string]Summary
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{budgets: make(map[string]Summary)}
}

// Set stores the limit and spend of a budget.
func (s *MemorySource) Set(budgetID string, limit, spent int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetID] = Summary{BudgetID: budgetID, Limit: limit, Spent: spent, Remaining: limit - spent}
}

func (s *MemorySource) Summary(ctx context.Context, principal int64, budgetID string) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.budgets[budgetID]
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrBudgetNotFound, budgetID)
	}
	sum.Principal = principal
	return sum, nil
}

func encodeSummary(s Summary) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
