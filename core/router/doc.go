// Package router provides a generic HTTP router whose handlers receive a
// typed request context and return a handler.Response.
//
// Matching is delegated to net/http.ServeMux, so patterns use its syntax:
// "{id}" captures one segment, "{rest...}" captures the remainder. A pattern
// ending in "/" matches only that exact path.
//
//	import "github.com/dmitrymomot/budgetguard/core/router"
//
//	r := router.New[*router.Context](
//		router.WithLogger[*router.Context](log),
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Use(middleware.RequestID[*router.Context]())
//
//	r.Get("/budgets/{id}", func(ctx *router.Context) handler.Response {
//		return response.JSON(map[string]string{"id": ctx.Param("id")})
//	})
//
// # Groups
//
// Route and Group derive routers that share the route table. Middleware added
// to a group only wraps the group's routes:
//
//	r.Route("/api", func(api router.Router[*router.Context]) {
//		api.Use(middleware.RateLimit[*router.Context](limiter))
//		api.Get("/totals", totalsHandler)
//	})
//
// # Errors
//
// Handler errors, nil responses, unmatched paths (ErrNotFound) and unmatched
// methods (ErrMethodNotAllowed) reach the error handler. Panics are recovered,
// logged and passed on as a PanicError. The default handler writes plain text
// and never writes over a response that has already started.
//
// # Custom Contexts
//
// Any handler.Context implementation can be used with a factory:
//
//	r := router.New[*AppContext](
//		router.WithContextFactory(func(w http.ResponseWriter, r *http.Request) *AppContext {
//			return &AppContext{Context: router.NewContext(w, r)}
//		}),
//	)
package router
