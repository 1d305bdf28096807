package health

import (
	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
)

// Liveness always returns "ALIVE" with 200 OK. No dependency checks.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}

// NoContent returns HTTP 204 without body.
func NoContent[C handler.Context](C) handler.Response {
	return response.NoContent()
}
