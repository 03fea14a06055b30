package alto

import (
	"context"
	"net/http"
	"strings"
)

// HandlerFunc is the core handler signature. Handlers see only the decoded,
// validated request view; encoding and status handling belong to the
// framework.
type HandlerFunc func(ctx context.Context, c *Ctx) (any, error)

// Get registers a GET route.
func (r *Router) Get(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(r, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST route.
func (r *Router) Post(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(r, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT route.
func (r *Router) Put(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(r, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH route.
func (r *Router) Patch(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(r, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE route.
func (r *Router) Delete(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(r, http.MethodDelete, pattern, h, opts...)
}

// Get registers a GET route on the group.
func (g *Group) Get(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(g, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST route on the group.
func (g *Group) Post(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(g, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT route on the group.
func (g *Group) Put(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(g, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH route on the group.
func (g *Group) Patch(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(g, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE route on the group.
func (g *Group) Delete(pattern string, h HandlerFunc, opts ...RouteOption) {
	register(g, http.MethodDelete, pattern, h, opts...)
}

// register builds the route descriptor, normalizes its declarations, and
// wires the request pipeline. Everything shape-dependent happens here,
// once, at the registration boundary.
func register(reg Registrar, method, pattern string, h HandlerFunc, opts ...RouteOption) {
	router := reg.baseRouter()

	ri := &routeInfo{
		method:  method,
		pattern: pattern,
	}
	for _, opt := range opts {
		opt(ri)
	}
	reg.applyDefaults(ri)

	ri.pattern = normalizePattern(ri.pattern)
	ri.paramNames = patternParamNames(ri.pattern)

	if ri.status == 0 {
		ri.status = http.StatusOK
	}

	ri.handler = router.pipeline(ri, h)

	routeMW := reg.routeMiddleware()
	for i := len(routeMW) - 1; i >= 0; i-- {
		ri.handler = routeMW[i](ri.handler)
	}

	router.addRoute(ri)
}

// pipeline builds the per-request state machine: validate every declared
// field group, resolve declared dependencies, run the handler, validate the
// response. Validation failures never reach the handler.
func (rt *Router) pipeline(ri *routeInfo, h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		if ri.bodyLimit > 0 {
			req.Body = http.MaxBytesReader(w, req.Body, ri.bodyLimit)
		}

		c, verrs := decodeRequest(ctx, ri, req, rt.failFast)
		if len(verrs) > 0 {
			rt.respondError(w, req, newValidationProblem(verrs))
			return
		}

		c.scope = newScope()
		for _, d := range ri.deps {
			if _, err := c.scope.resolve(ctx, c, d); err != nil {
				rt.respondError(w, req, err)
				return
			}
		}

		result, err := h(ctx, c)
		if err != nil {
			rt.respondError(w, req, err)
			return
		}

		rt.writeResult(ctx, w, req, ri, result)
	})
}

// normalizePattern converts ":name" path segments into the "{name}" form
// the mux understands, so both spellings register identically.
func normalizePattern(pattern string) string {
	if !strings.Contains(pattern, ":") {
		return pattern
	}
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			segs[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// patternParamNames extracts the "{name}" parameter names from a pattern,
// stripping any wildcard suffix.
func patternParamNames(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			name = strings.TrimSuffix(name, "...")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
