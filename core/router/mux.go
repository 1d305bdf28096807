package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/logger"
)

// routeTable is shared by a router and every group derived from it.
type routeTable struct {
	mu     sync.RWMutex
	routes []Route
}

// mux dispatches through a net/http.ServeMux. Groups share the ServeMux and
// link to their parent, so middleware added with Use on any level applies to
// routes registered before and after the call.
type mux[C handler.Context] struct {
	tree   *http.ServeMux
	table  *routeTable
	parent *mux[C]
	prefix string

	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request) C
	logger       *slog.Logger
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		tree:         http.NewServeMux(),
		table:        &routeTable{},
		errorHandler: defaultErrorHandler[C],
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	// *Context needs no factory.
	if f, ok := any(NewContext).(func(http.ResponseWriter, *http.Request) C); ok {
		m.newContext = f
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		panic(ErrNoContextFactory)
	}
	return m
}

func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, pattern := m.tree.Handler(r)
	if pattern != "" {
		// ServeHTTP rather than h: only the ServeMux populates PathValue.
		m.tree.ServeHTTP(w, r)
		return
	}

	probe := &discardWriter{header: make(http.Header)}
	h.ServeHTTP(probe, r)

	ww := newResponseWriter(w)
	ctx := m.newContext(ww, r)
	if probe.status == http.StatusMethodNotAllowed {
		if allow := probe.header.Get("Allow"); allow != "" {
			ww.Header().Set("Allow", allow)
		}
		m.errorHandler(ctx, ErrMethodNotAllowed)
		return
	}
	m.errorHandler(ctx, ErrNotFound)
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodGet, pattern, h)
}

func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPost, pattern, h)
}

func (m *mux[C]) Put(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPut, pattern, h)
}

func (m *mux[C]) Delete(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodDelete, pattern, h)
}

func (m *mux[C]) Patch(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodPatch, pattern, h)
}

func (m *mux[C]) Head(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodHead, pattern, h)
}

func (m *mux[C]) Options(pattern string, h handler.HandlerFunc[C]) {
	m.handle(http.MethodOptions, pattern, h)
}

// Handle registers h for every method.
func (m *mux[C]) Handle(pattern string, h handler.HandlerFunc[C]) {
	m.handle("", pattern, h)
}

func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods for %s", ErrInvalidMethod, pattern))
	}
	for _, method := range methods {
		method = strings.ToUpper(strings.TrimSpace(method))
		if method == "" || strings.ContainsAny(method, " /") {
			panic(fmt.Errorf("%w: %q", ErrInvalidMethod, method))
		}
		m.handle(method, pattern, h)
	}
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

// With returns a group sharing this router's routes, with extra middleware.
func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	sub := m.child(m.prefix)
	sub.middlewares = slices.Clone(middlewares)
	return sub
}

func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	sub := m.child(m.prefix)
	if fn != nil {
		fn(sub)
	}
	return sub
}

func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Errorf("%w: %q must begin with '/'", ErrInvalidPattern, pattern))
	}
	sub := m.child(m.prefix + strings.TrimSuffix(pattern, "/"))
	if fn != nil {
		fn(sub)
	}
	return sub
}

func (m *mux[C]) Routes() []Route {
	m.table.mu.RLock()
	defer m.table.mu.RUnlock()
	return slices.Clone(m.table.routes)
}

func (m *mux[C]) child(prefix string) *mux[C] {
	return &mux[C]{
		tree:         m.tree,
		table:        m.table,
		parent:       m,
		prefix:       prefix,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
}

// stack returns middleware from the outermost router inwards.
func (m *mux[C]) stack() []handler.Middleware[C] {
	if m.parent == nil {
		return m.middlewares
	}
	return append(slices.Clone(m.parent.stack()), m.middlewares...)
}

func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	if h == nil {
		panic(fmt.Errorf("%w: %s %s", ErrNilHandler, method, pattern))
	}
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Errorf("%w: %q must begin with '/'", ErrInvalidPattern, pattern))
	}

	full := m.prefix + pattern
	if m.prefix != "" && pattern == "/" {
		full = m.prefix
	}

	// Trailing slash patterns are exact matches, not subtrees.
	muxPattern := full
	if strings.HasSuffix(muxPattern, "/") {
		muxPattern += "{$}"
	}
	if method != "" {
		muxPattern = method + " " + muxPattern
	}

	m.tree.HandleFunc(muxPattern, func(w http.ResponseWriter, r *http.Request) {
		m.serve(w, r, h)
	})

	m.table.mu.Lock()
	m.table.routes = append(m.table.routes, Route{Method: method, Pattern: full})
	m.table.mu.Unlock()
}

func (m *mux[C]) serve(w http.ResponseWriter, r *http.Request, h handler.HandlerFunc[C]) {
	ww := newResponseWriter(w)
	ctx := m.newContext(ww, r)

	defer func() {
		if rec := recover(); rec != nil {
			m.recoverPanic(ctx, ww, rec)
		}
	}()

	resp := handler.Chain(h, m.stack()...)(ctx)
	if resp == nil {
		m.errorHandler(ctx, ErrNilResponse)
		return
	}
	if err := resp(ww, ctx.Request()); err != nil {
		m.errorHandler(ctx, err)
	}
}

func (m *mux[C]) recoverPanic(ctx C, ww *responseWriter, rec any) {
	if rec == http.ErrAbortHandler {
		panic(rec)
	}

	err := &panicError{value: rec, stack: debug.Stack()}
	m.logger.ErrorContext(ctx, "panic recovered",
		logger.Component("router"),
		logger.Method(ctx.Request().Method),
		logger.Path(ctx.Request().URL.Path),
		logger.Key("panic", rec),
		slog.String("stack", string(err.stack)),
	)

	if ww.Written() {
		return
	}
	m.errorHandler(ctx, err)
}
