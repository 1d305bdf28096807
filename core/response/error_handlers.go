package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/budgetguard/core/handler"
)

// statusCode is an interface that errors can implement
// to provide a custom HTTP status code.
type statusCode interface {
	StatusCode() int
}

// convertToHTTPError maps any error onto an HTTPError. Errors that are not
// HTTPErrors keep their StatusCode when they have one and are attached as the cause.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = ErrInternalServerError
	}

	// Internal causes stay in the logs.
	if base.Status >= http.StatusInternalServerError {
		return base
	}
	return base.WithError(err)
}

// ErrorHandler writes errors as plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	if written(ctx.ResponseWriter()) {
		return
	}
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler writes errors as {"code", "message", "details"} objects.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	if written(ctx.ResponseWriter()) {
		return
	}
	httpErr := convertToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}
