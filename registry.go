package alto

import "sync"

// routeRegistry is the append-only store of route descriptors. It is
// populated during the registration phase and read by both request dispatch
// and the OpenAPI generator. Serving treats it as immutable; the mutex only
// guards concurrent registration.
type routeRegistry struct {
	mu     sync.Mutex
	routes []*routeInfo
}

func (rr *routeRegistry) add(ri *routeInfo) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.routes = append(rr.routes, ri)
}

func (rr *routeRegistry) all() []*routeInfo {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	out := make([]*routeInfo, len(rr.routes))
	copy(out, rr.routes)
	return out
}
