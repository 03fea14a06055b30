package alto

// Group is a collection of routes under a shared prefix with shared
// middleware, tags, and dependencies.
type Group struct {
	router     *Router
	prefix     string
	middleware []Middleware
	tags       []string
	deps       []Dependency
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupTags adds default tags to all routes registered on the group.
func WithGroupTags(tags ...string) GroupOption {
	return func(g *Group) { g.tags = append(g.tags, tags...) }
}

// WithGroupMiddleware adds middleware to the group.
func WithGroupMiddleware(mw ...Middleware) GroupOption {
	return func(g *Group) { g.middleware = append(g.middleware, mw...) }
}

// WithGroupDependencies adds providers resolved before every handler in
// the group.
func WithGroupDependencies(deps ...Dependency) GroupOption {
	return func(g *Group) { g.deps = append(g.deps, deps...) }
}

// Group creates a new route group with the given prefix and options.
func (r *Router) Group(prefix string, opts ...GroupOption) *Group {
	g := &Group{
		router: r,
		prefix: prefix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registrar is the interface accepted by route registration. Both *Router
// and *Group implement it.
type Registrar interface {
	baseRouter() *Router
	applyDefaults(ri *routeInfo)
	routeMiddleware() []Middleware
}

func (r *Router) baseRouter() *Router          { return r }
func (r *Router) applyDefaults(_ *routeInfo)   {}
func (r *Router) routeMiddleware() []Middleware { return nil }

func (g *Group) baseRouter() *Router { return g.router }

func (g *Group) applyDefaults(ri *routeInfo) {
	ri.pattern = g.prefix + ri.pattern
	ri.tags = append(append([]string{}, g.tags...), ri.tags...)
	ri.deps = append(append([]Dependency{}, g.deps...), ri.deps...)
}

func (g *Group) routeMiddleware() []Middleware { return g.middleware }
