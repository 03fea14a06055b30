package alto

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Router holds the route registry, middleware, and configuration.
// It implements http.Handler. Registration is a setup phase; once serving
// begins the registry and the generated document are effectively immutable.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware
	registry   *routeRegistry

	title   string
	version string

	servers         []Server
	securitySchemes map[string]SecurityScheme
	security        []SecurityRequirement
	tagDescs        map[string]string

	// Router-wide default responses, merged under each route's own
	// responses. A route entry for the same status always wins.
	defaultResponses map[int]canonicalResponse

	errorRules []errorRule
	failFast   bool
	logger     *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTitle sets the API title (used in the OpenAPI document).
func WithTitle(title string) RouterOption {
	return func(r *Router) { r.title = title }
}

// WithVersion sets the API version (used in the OpenAPI document).
func WithVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

// WithServers sets the OpenAPI servers array.
func WithServers(servers ...Server) RouterOption {
	return func(r *Router) { r.servers = servers }
}

// WithSecurityScheme registers a named security scheme for the document.
func WithSecurityScheme(name string, scheme SecurityScheme) RouterOption {
	return func(r *Router) {
		if r.securitySchemes == nil {
			r.securitySchemes = make(map[string]SecurityScheme)
		}
		r.securitySchemes[name] = scheme
	}
}

// WithGlobalSecurity sets the default security requirement applied to
// routes that declare none and carry no provider security tags.
func WithGlobalSecurity(scheme string, scopes ...string) RouterOption {
	return func(r *Router) {
		if scopes == nil {
			scopes = []string{}
		}
		r.security = append(r.security, SecurityRequirement{scheme: scopes})
	}
}

// WithTagDescriptions sets tag descriptions for the document.
func WithTagDescriptions(descs map[string]string) RouterOption {
	return func(r *Router) { r.tagDescs = descs }
}

// WithDefaultResponse registers a router-wide response for a status code,
// documented on every route unless the route declares its own response for
// the same status.
func WithDefaultResponse(status int, rs ResponseSpec) RouterOption {
	return func(r *Router) {
		if r.defaultResponses == nil {
			r.defaultResponses = make(map[int]canonicalResponse)
		}
		r.defaultResponses[status] = normalizeResponse(status, rs)
	}
}

// WithFailFastValidation stops request validation at the first failing
// field group instead of collecting errors from every declared group.
func WithFailFastValidation() RouterOption {
	return func(r *Router) { r.failFast = true }
}

// WithRouterLogger sets the logger used for server-side defects
// (response contract violations, recovered panics).
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		registry: &routeRegistry{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// addRoute registers a routeInfo with the router's mux and stores it in the
// registry for OpenAPI generation. Global middleware is applied in
// ServeHTTP, not here; only group middleware is baked into ri.handler.
func (r *Router) addRoute(ri *routeInfo) {
	r.mux.Handle(ri.method+" "+ri.pattern, ri.handler)
	r.registry.add(ri)
}
