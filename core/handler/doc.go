// Package handler defines the types shared by the router, the middleware and
// the response helpers.
//
// A HandlerFunc receives a request Context and returns a Response. The
// Response is a deferred render: it runs after the middleware chain has
// unwound, so middleware can replace it or set headers on the writer first.
//
//	func summary(ctx *router.Context) handler.Response {
//		id := ctx.Param("id")
//		if id == "" {
//			return response.Error(response.ErrBadRequest)
//		}
//		return response.JSON(lookup(ctx, id))
//	}
//
// # Context
//
// Context embeds context.Context and exposes the request, the writer, path
// parameters and SetValue for request-scoped values. router.Context is the
// default implementation:
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Get("/api/budgets/{id}/summary", summary)
//
// # Middleware
//
// Middleware[C] wraps a HandlerFunc[C]. Chain composes them outside a router;
// the first middleware runs first:
//
//	h := handler.Chain(summary,
//		middleware.ClientIP[*router.Context](),
//		middleware.Principal[*router.Context](),
//		middleware.RateLimit[*router.Context](limiter),
//		middleware.ResponseCache[*router.Context](manager, pool),
//	)
//
// # Errors
//
// A Response that returns an error, and a handler that returns
// response.Error(err), both end up in the router's ErrorHandler. It must not
// write when the response has already been written.
package handler
