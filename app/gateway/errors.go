package gateway

import (
	"errors"
	"net/http"
)

var (
	ErrNilDependency  = errors.New("gateway: nil dependency")
	ErrBudgetNotFound = errors.New("budget not found")
)

// notFound gives ErrBudgetNotFound a 404 for the JSON error handler.
type notFound struct{ error }

func (notFound) StatusCode() int { return http.StatusNotFound }
