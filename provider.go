package alto

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Dependency is the untyped handle for a provider, used in route
// declarations and as the memoization key inside a request scope.
type Dependency interface {
	resolveAny(ctx context.Context, c *Ctx) (any, error)
	securityTag() (scheme string, scopes []string, ok bool)
}

// Provider is a request-scoped computation supplying a dependency value.
// Providers memoize by identity: within one request, each *Provider
// evaluates at most once no matter how many other providers or handlers
// resolve it, and all of them observe the same value, or the same error.
type Provider[T any] struct {
	fn     func(ctx context.Context, c *Ctx) (T, error)
	scheme string
	scopes []string
}

// NewProvider creates a provider from a function. The function may itself
// resolve other providers through the same Ctx.
func NewProvider[T any](fn func(ctx context.Context, c *Ctx) (T, error)) *Provider[T] {
	return &Provider[T]{fn: fn}
}

// Value creates a provider that always yields a fixed value.
func Value[T any](v T) *Provider[T] {
	return &Provider[T]{fn: func(context.Context, *Ctx) (T, error) { return v, nil }}
}

// Resolve evaluates the provider within the request's scope, memoized.
func (p *Provider[T]) Resolve(ctx context.Context, c *Ctx) (T, error) {
	v, err := c.scope.resolve(ctx, c, p)
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (p *Provider[T]) resolveAny(ctx context.Context, c *Ctx) (any, error) {
	v, err := p.fn(ctx, c)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Provider[T]) securityTag() (string, []string, bool) {
	if p.scheme == "" {
		return "", nil, false
	}
	return p.scheme, p.scopes, true
}

// ScopeGranter is implemented by principals that carry granted scopes.
type ScopeGranter interface {
	GrantedScopes() []string
}

// RequireScopes wraps a principal provider with an authorization check tied
// to a named security scheme. Resolution fails with 401 when the inner
// provider yields no principal, and with 403 when the principal's granted
// scopes do not cover the scopes required here. The returned provider
// carries a security tag that feeds the route's documented security
// requirement when none is declared explicitly.
func RequireScopes[T any](p *Provider[T], scheme string, scopes ...string) *Provider[T] {
	return &Provider[T]{
		scheme: scheme,
		scopes: scopes,
		fn: func(ctx context.Context, c *Ctx) (T, error) {
			principal, err := p.Resolve(ctx, c)
			if err != nil {
				var zero T
				return zero, err
			}
			if isNilValue(principal) {
				var zero T
				return zero, Unauthorized("authentication required")
			}
			if len(scopes) > 0 {
				granter, ok := any(principal).(ScopeGranter)
				if !ok {
					var zero T
					return zero, Forbidden("insufficient scope")
				}
				granted := granter.GrantedScopes()
				for _, required := range scopes {
					if !containsScope(granted, required) {
						var zero T
						return zero, Forbidden(fmt.Sprintf("missing required scope %q", required))
					}
				}
			}
			return principal, nil
		},
	}
}

func containsScope(granted []string, want string) bool {
	for _, s := range granted {
		if s == want {
			return true
		}
	}
	return false
}

// isNilValue reports whether v is nil behind an interface, pointer, map,
// or slice. A nil principal means no authenticated caller.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// Scope is the per-request memoization table for providers. It is created
// fresh per request and discarded when the request completes; this is the
// only request-local mutable state in the pipeline.
type Scope struct {
	mu      sync.Mutex
	results map[Dependency]scopeResult
}

type scopeResult struct {
	value any
	err   error
}

func newScope() *Scope {
	return &Scope{results: make(map[Dependency]scopeResult)}
}

// resolve returns the memoized result for d, evaluating it on first use.
// Evaluation runs outside the lock so a provider body can resolve other
// providers; if two resolutions of the same provider race, the first stored
// result wins and both callers observe it.
func (s *Scope) resolve(ctx context.Context, c *Ctx, d Dependency) (any, error) {
	s.mu.Lock()
	if r, ok := s.results[d]; ok {
		s.mu.Unlock()
		return r.value, r.err
	}
	s.mu.Unlock()

	v, err := d.resolveAny(ctx, c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[d]; ok {
		return r.value, r.err
	}
	s.results[d] = scopeResult{value: v, err: err}
	return v, err
}
