package alto

import (
	"sort"
	"strconv"
	"strings"

	js "github.com/reoring/goskema/jsonschema"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI    string                `json:"openapi"`
	Info       OpenAPIInfo           `json:"info"`
	Servers    []Server              `json:"servers,omitempty"`
	Paths      map[string]PathItem   `json:"paths"`
	Tags       []Tag                 `json:"tags,omitempty"`
	Components *Components           `json:"components,omitempty"`
	Security   []SecurityRequirement `json:"security,omitempty"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Server describes an API server.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Tag describes a documentation tag.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Components holds reusable document objects.
type Components struct {
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`
}

// SecurityScheme describes a named security scheme.
type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme,omitempty"`
	BearerFormat string `json:"bearerFormat,omitempty"`
	In           string `json:"in,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
}

// PathItem maps HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string                 `json:"summary,omitempty"`
	Description string                 `json:"description,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	OperationID string                 `json:"operationId,omitempty"`
	Parameters  []Parameter            `json:"parameters,omitempty"`
	RequestBody *RequestBody           `json:"requestBody,omitempty"`
	Responses   OperationResp          `json:"responses"`
	Deprecated  bool                   `json:"deprecated,omitempty"`
	Security    *[]SecurityRequirement `json:"security,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name"`
	In          string     `json:"in"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Deprecated  bool       `json:"deprecated,omitempty"`
	Schema      JSONSchema `json:"schema"`
	Example     any        `json:"example,omitempty"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required"`
	Content     map[string]MediaObj `json:"content"`
}

// MediaObj is a media type object.
type MediaObj struct {
	Schema   *JSONSchema    `json:"schema,omitempty"`
	Example  any            `json:"example,omitempty"`
	Encoding map[string]any `json:"encoding,omitempty"`
}

// OperationResp maps HTTP status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description"`
	Content     map[string]MediaObj `json:"content,omitempty"`
	Headers     map[string]Header   `json:"headers,omitempty"`
	Links       map[string]Link     `json:"links,omitempty"`
}

// JSONSchema is the document-side JSON Schema shape (subset for OpenAPI 3.1).
type JSONSchema struct {
	Type                 string                `json:"type,omitempty"`
	Format               string                `json:"format,omitempty"`
	Description          string                `json:"description,omitempty"`
	Default              any                   `json:"default,omitempty"`
	Properties           map[string]JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema           `json:"items,omitempty"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties any                   `json:"additionalProperties,omitempty"`
	MinItems             *int                  `json:"minItems,omitempty"`
	MaxItems             *int                  `json:"maxItems,omitempty"`
	OneOf                []*JSONSchema         `json:"oneOf,omitempty"`
}

// fromReflected converts a goskema reflection into the document shape.
func fromReflected(s *js.Schema) JSONSchema {
	if s == nil {
		return JSONSchema{}
	}
	out := JSONSchema{
		Type:     s.Type,
		Format:   s.Format,
		Default:  s.Default,
		Required: s.Required,
		MinItems: s.MinItems,
		MaxItems: s.MaxItems,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]JSONSchema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = fromReflected(prop)
		}
	}
	if s.Items != nil {
		items := fromReflected(s.Items)
		out.Items = &items
	}
	switch ap := s.AdditionalProperties.(type) {
	case *js.Schema:
		converted := fromReflected(ap)
		out.AdditionalProperties = &converted
	case nil:
	default:
		out.AdditionalProperties = ap
	}
	for _, branch := range s.OneOf {
		converted := fromReflected(branch)
		out.OneOf = append(out.OneOf, &converted)
	}
	return out
}

// reflectSchema reflects an alto Schema into the document shape, returning
// a zero schema when reflection is unavailable.
func reflectSchema(s Schema) JSONSchema {
	if s == nil {
		return JSONSchema{}
	}
	reflected, err := s.Reflect()
	if err != nil {
		return JSONSchema{}
	}
	return fromReflected(reflected)
}

// Spec generates the OpenAPI 3.1 document from the route registry. Both the
// document and the runtime validators consume the same canonical schemas,
// so the advertised contract cannot drift from validated behavior.
func (r *Router) Spec() OpenAPISpec {
	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:   r.title,
			Version: r.version,
		},
		Servers:  r.servers,
		Paths:    make(map[string]PathItem),
		Security: r.security,
	}

	if len(r.securitySchemes) > 0 {
		spec.Components = &Components{SecuritySchemes: r.securitySchemes}
	}

	tagNames := map[string]bool{}
	for _, ri := range r.registry.all() {
		path := toDocPath(ri.pattern)
		method := strings.ToLower(ri.method)

		if spec.Paths[path] == nil {
			spec.Paths[path] = make(PathItem)
		}
		spec.Paths[path][method] = r.buildOperation(ri)

		for _, t := range ri.tags {
			tagNames[t] = true
		}
	}

	names := make([]string, 0, len(tagNames))
	for name := range tagNames {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec.Tags = append(spec.Tags, Tag{Name: name, Description: r.tagDescs[name]})
	}

	return spec
}

// buildOperation creates an Operation from a route descriptor.
func (r *Router) buildOperation(ri *routeInfo) Operation {
	op := Operation{
		Summary:     ri.summary,
		Description: ri.desc,
		Tags:        ri.tags,
		OperationID: ri.operationID,
		Deprecated:  ri.deprecated,
		Parameters:  flattenParameters(ri),
		RequestBody: buildRequestBody(ri),
		Responses:   r.buildResponses(ri),
		Security:    deriveSecurity(ri),
	}
	return op
}

// parameterGroups maps field groups to OpenAPI parameter locations.
var parameterGroups = []struct {
	in     string
	schema func(*routeInfo) Schema
}{
	{"path", func(ri *routeInfo) Schema { return ri.params }},
	{"query", func(ri *routeInfo) Schema { return ri.query }},
	{"header", func(ri *routeInfo) Schema { return ri.headers }},
	{"cookie", func(ri *routeInfo) Schema { return ri.cookies }},
}

// flattenParameters turns each declared object schema into one parameter
// per property. Path parameters are always required; other locations take
// the reflected required list.
func flattenParameters(ri *routeInfo) []Parameter {
	var params []Parameter
	for _, group := range parameterGroups {
		s := group.schema(ri)
		if s == nil {
			continue
		}
		obj := reflectSchema(s)
		names := make([]string, 0, len(obj.Properties))
		for name := range obj.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			prop := obj.Properties[name]
			params = append(params, Parameter{
				Name:        name,
				In:          group.in,
				Required:    group.in == "path" || containsString(obj.Required, name),
				Deprecated:  ri.deprecated,
				Schema:      prop,
				Description: prop.Description,
				Example:     prop.Default,
			})
		}
	}
	return params
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

var binarySchema = JSONSchema{Type: "string", Format: "binary"}

// buildRequestBody documents whichever body group the route declares. Form
// schemas get both multipart and urlencoded representations unless a
// property is a raw file type, in which case only multipart is offered.
// Bare file/files bodies are wrapped in a single-property object schema
// under the conventional field name.
func buildRequestBody(ri *routeInfo) *RequestBody {
	if ri.body != nil {
		schema := reflectSchema(ri.body.schema)
		return &RequestBody{
			Description: ri.body.desc,
			Required:    ri.body.required,
			Content:     map[string]MediaObj{contentTypeJSON: {Schema: &schema}},
		}
	}

	if ri.form == nil && ri.file == nil && ri.files == nil {
		return nil
	}

	schema := JSONSchema{Type: "object", Properties: map[string]JSONSchema{}}
	desc := ""
	required := false

	if ri.form != nil {
		schema = reflectSchema(ri.form.schema)
		if schema.Properties == nil {
			schema.Properties = map[string]JSONSchema{}
		}
		desc = ri.form.desc
		required = required || ri.form.required
	}
	if ri.file != nil {
		schema.Properties[uploadFieldFile] = binarySchema
		if ri.file.required {
			schema.Required = append(schema.Required, uploadFieldFile)
			required = true
		}
		if desc == "" {
			desc = ri.file.desc
		}
	}
	if ri.files != nil {
		items := binarySchema
		schema.Properties[uploadFieldFiles] = JSONSchema{Type: "array", Items: &items}
		if ri.files.required {
			schema.Required = append(schema.Required, uploadFieldFiles)
			required = true
		}
		if desc == "" {
			desc = ri.files.desc
		}
	}

	content := map[string]MediaObj{
		"multipart/form-data": {Schema: &schema},
	}
	if !schemaHasBinary(schema) {
		content["application/x-www-form-urlencoded"] = MediaObj{Schema: &schema}
	}

	return &RequestBody{Description: desc, Required: required, Content: content}
}

// schemaHasBinary reports whether any property is a raw file type.
func schemaHasBinary(s JSONSchema) bool {
	for _, prop := range s.Properties {
		if prop.Format == "binary" {
			return true
		}
		if prop.Items != nil && prop.Items.Format == "binary" {
			return true
		}
	}
	return false
}

// buildResponses merges router-wide default responses under the route's
// canonical response specs; a route entry for a status always replaces the
// default for that status, never merges with it.
func (r *Router) buildResponses(ri *routeInfo) OperationResp {
	merged := make(map[int]canonicalResponse, len(r.defaultResponses)+len(ri.responses))
	for status, cr := range r.defaultResponses {
		merged[status] = cr
	}
	for status, cr := range ri.responses {
		merged[status] = cr
	}

	if len(merged) == 0 {
		merged[ri.status] = canonicalResponse{description: statusDescription(ri.status)}
	}

	out := make(OperationResp, len(merged))
	for status, cr := range merged {
		resp := ResponseObj{
			Description: cr.description,
			Headers:     cr.headers,
			Links:       cr.links,
		}
		if len(cr.content) > 0 {
			resp.Content = make(map[string]MediaObj, len(cr.content))
			for ct, ms := range cr.content {
				mo := MediaObj{Example: ms.example, Encoding: ms.encoding}
				if ms.schema != nil {
					schema := reflectSchema(ms.schema)
					mo.Schema = &schema
				}
				resp.Content[ct] = mo
			}
		}
		out[strconv.Itoa(status)] = resp
	}
	return out
}

// deriveSecurity picks the operation's security requirement: explicit route
// security wins, then scheme tags carried by the route's providers, then
// nothing (the document-level default applies). WithNoSecurity emits an
// empty requirement, overriding the global default.
func deriveSecurity(ri *routeInfo) *[]SecurityRequirement {
	if ri.noSecurity {
		empty := []SecurityRequirement{}
		return &empty
	}
	if len(ri.security) > 0 {
		sec := ri.security
		return &sec
	}

	var derived []SecurityRequirement
	seen := map[string]bool{}
	for _, d := range ri.deps {
		scheme, scopes, ok := d.securityTag()
		if !ok || seen[scheme] {
			continue
		}
		seen[scheme] = true
		if scopes == nil {
			scopes = []string{}
		}
		derived = append(derived, SecurityRequirement{scheme: scopes})
	}
	if len(derived) > 0 {
		return &derived
	}
	return nil
}

// toDocPath converts a mux pattern to the documentation path syntax.
// ":name" segments were already normalized to "{name}" at registration;
// wildcard suffixes are stripped here.
func toDocPath(pattern string) string {
	return strings.ReplaceAll(pattern, "...", "")
}
