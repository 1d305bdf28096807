// Package response builds handler.Response values and error handlers for the
// router.
//
//	import "github.com/dmitrymomot/budgetguard/core/response"
//
//	func totals(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]int64{"spent": 1200})
//	}
//
// # Errors
//
// Handlers return errors through Error. JSONErrorHandler renders HTTPError
// values as {"code", "message", "details"}; other errors map by their
// StatusCode() when they have one, else to 500. Causes of 5xx errors are not
// echoed to clients.
//
//	return response.Error(response.ErrTooManyRequests.WithDetails(map[string]any{
//		"retry_after": 3,
//	}))
//
// # Decorators
//
// WithHeaders and WithCache wrap a response and set headers before it renders.
// WithCache(resp, 0) marks a response no-store.
package response
