package alto

import "net/http"

// SecurityRequirement names a security scheme and the scopes it requires.
type SecurityRequirement map[string][]string

// routeInfo is the descriptor for one registered route. It is built once at
// registration, stored in the registry, and read by both the request
// pipeline and the OpenAPI generator. Immutable after registration.
type routeInfo struct {
	method  string
	pattern string

	summary     string
	desc        string
	tags        []string
	operationID string
	deprecated  bool
	status      int

	security   []SecurityRequirement
	noSecurity bool

	// Field group schemas; nil groups are not validated.
	params  Schema
	query   Schema
	headers Schema
	cookies Schema
	body    *BodySpec
	form    *BodySpec
	file    *BodySpec
	files   *BodySpec

	// Canonical response specs by status code.
	responses map[int]canonicalResponse

	// Providers resolved before the handler runs.
	deps []Dependency

	bodyLimit int64

	// Parameter names extracted from the pattern at registration.
	paramNames []string

	handler http.Handler
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeInfo)

// WithParams declares the schema for path parameters.
func WithParams(s Schema) RouteOption {
	return func(ri *routeInfo) { ri.params = s }
}

// WithQuery declares the schema for query parameters. Multi-value keys are
// collapsed before validation: one value becomes a scalar, two or more
// remain an array.
func WithQuery(s Schema) RouteOption {
	return func(ri *routeInfo) { ri.query = s }
}

// WithHeaders declares the schema for request headers. Header names are
// matched lowercase; decoded fields merge over the raw header map.
func WithHeaders(s Schema) RouteOption {
	return func(ri *routeInfo) { ri.headers = s }
}

// WithCookies declares the schema for request cookies.
func WithCookies(s Schema) RouteOption {
	return func(ri *routeInfo) { ri.cookies = s }
}

// WithBody declares the request body. The BodySpec constructor fixes which
// group it belongs to: Body (JSON), Form, File, or Files. Groups are
// independent, so a multipart route may declare Form and Files together.
func WithBody(b BodySpec) RouteOption {
	return func(ri *routeInfo) {
		spec := b
		switch b.kind {
		case bodyForm:
			ri.form = &spec
		case bodyFile:
			ri.file = &spec
		case bodyFiles:
			ri.files = &spec
		default:
			ri.body = &spec
		}
	}
}

// WithResponse declares the response for a status code. Any declaration
// shape is accepted; it is normalized into canonical form here, at the
// registration boundary.
func WithResponse(status int, rs ResponseSpec) RouteOption {
	return func(ri *routeInfo) {
		if ri.responses == nil {
			ri.responses = make(map[int]canonicalResponse)
		}
		ri.responses[status] = normalizeResponse(status, rs)
	}
}

// WithStatus sets the default HTTP status code for plain-value responses.
func WithStatus(code int) RouteOption {
	return func(ri *routeInfo) { ri.status = code }
}

// WithSummary sets the OpenAPI summary for the route.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) { ri.summary = s }
}

// WithDescription sets the OpenAPI description for the route.
func WithDescription(d string) RouteOption {
	return func(ri *routeInfo) { ri.desc = d }
}

// WithTags adds OpenAPI tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(ri *routeInfo) { ri.tags = append(ri.tags, tags...) }
}

// WithOperationID sets a custom OpenAPI operationId.
func WithOperationID(id string) RouteOption {
	return func(ri *routeInfo) { ri.operationID = id }
}

// WithDeprecated marks the route as deprecated in the OpenAPI document.
func WithDeprecated() RouteOption {
	return func(ri *routeInfo) { ri.deprecated = true }
}

// WithSecurity adds an explicit security requirement. Explicit requirements
// take precedence over scheme tags carried by the route's providers.
func WithSecurity(scheme string, scopes ...string) RouteOption {
	return func(ri *routeInfo) {
		if scopes == nil {
			scopes = []string{}
		}
		ri.security = append(ri.security, SecurityRequirement{scheme: scopes})
	}
}

// WithNoSecurity disables security for this route (overrides global security).
func WithNoSecurity() RouteOption {
	return func(ri *routeInfo) { ri.noSecurity = true }
}

// WithDependencies declares providers resolved before the handler runs.
// Authorization failures inside them surface as 401/403 responses, and
// their security tags feed the document when no explicit security is set.
func WithDependencies(deps ...Dependency) RouteOption {
	return func(ri *routeInfo) { ri.deps = append(ri.deps, deps...) }
}

// WithBodyLimit sets a per-route maximum request body size in bytes.
// This overrides any global BodyLimit middleware for this route.
func WithBodyLimit(maxBytes int64) RouteOption {
	return func(ri *routeInfo) { ri.bodyLimit = maxBytes }
}
