package alto

import (
	"context"
	"net/http"
)

// Ctx is the decoded, validated view of one request, threaded explicitly
// through providers and handlers. It also owns the request's provider
// scope. A Ctx is never shared across requests.
type Ctx struct {
	req   *http.Request
	route *routeInfo

	params  map[string]any
	query   map[string]any
	headers map[string]any
	cookies map[string]any
	body    any
	form    map[string]any
	file    *FileUpload
	files   []FileUpload

	scope *Scope
}

// Request returns the underlying *http.Request for raw access.
func (c *Ctx) Request() *http.Request { return c.req }

// Params returns the decoded path parameters.
func (c *Ctx) Params() map[string]any { return c.params }

// Query returns the decoded query parameters. Single-value keys are
// scalars; repeated keys are arrays.
func (c *Ctx) Query() map[string]any { return c.query }

// Headers returns the header map, keyed lowercase. Decoded fields are
// merged over the raw values, so undeclared headers remain accessible.
func (c *Ctx) Headers() map[string]any { return c.headers }

// Cookies returns the decoded cookie values.
func (c *Ctx) Cookies() map[string]any { return c.cookies }

// Body returns the decoded request body, or nil when none was read.
func (c *Ctx) Body() any { return c.body }

// Form returns the decoded form fields, or nil when none were declared.
func (c *Ctx) Form() map[string]any { return c.form }

// File returns the uploaded file for routes declaring a File body,
// or nil when the request carried none.
func (c *Ctx) File() *FileUpload { return c.file }

// Files returns the uploaded files for routes declaring a Files body.
func (c *Ctx) Files() []FileUpload { return c.files }

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in middleware.
func SetValue[T any](r *http.Request, val T) *http.Request {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	return r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context. For use in handlers.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}
