package alto

import "net/http"

const contentTypeJSON = "application/json"

// Media is the content entry of the full declaration shape: a schema plus
// media-level fields.
type Media struct {
	Schema   Schema
	Example  any
	Encoding map[string]any
}

// Header documents a response header.
type Header struct {
	Description string      `json:"description,omitempty"`
	Schema      *JSONSchema `json:"schema,omitempty"`
}

// Link documents an OpenAPI response link.
type Link struct {
	OperationID string         `json:"operationId,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Description string         `json:"description,omitempty"`
}

// responseShape tags which declaration shape the author used. The shape is
// fixed by the constructor, never inferred from the presence of keys.
type responseShape int

const (
	shapeBare    responseShape = iota // Response(schema)
	shapeMeta                         // Response(schema).Description(...).Example(...)
	shapeContent                      // ResponseContent(map)
)

// ResponseSpec is a tagged response declaration. Build one with Response or
// ResponseContent and attach metadata with the chaining methods; it is
// flattened into canonical form once, at registration.
type ResponseSpec struct {
	shape   responseShape
	schema  Schema
	desc    string
	example any
	headers map[string]Header
	links   map[string]Link
	content map[string]Media
}

// Response declares a response by bare schema. Content type defaults to
// application/json.
func Response(s Schema) ResponseSpec {
	return ResponseSpec{shape: shapeBare, schema: s}
}

// ResponseContent declares a response with an explicit content map.
func ResponseContent(content map[string]Media) ResponseSpec {
	return ResponseSpec{shape: shapeContent, content: content}
}

// Description sets the response-level description.
func (rs ResponseSpec) Description(d string) ResponseSpec {
	if rs.shape == shapeBare {
		rs.shape = shapeMeta
	}
	rs.desc = d
	return rs
}

// Example sets the media-level example for the default content type.
func (rs ResponseSpec) Example(v any) ResponseSpec {
	if rs.shape == shapeBare {
		rs.shape = shapeMeta
	}
	rs.example = v
	return rs
}

// Header documents a response header.
func (rs ResponseSpec) Header(name string, h Header) ResponseSpec {
	if rs.shape == shapeBare {
		rs.shape = shapeMeta
	}
	if rs.headers == nil {
		rs.headers = map[string]Header{}
	}
	rs.headers[name] = h
	return rs
}

// Link documents a response link.
func (rs ResponseSpec) Link(name string, l Link) ResponseSpec {
	if rs.shape == shapeBare {
		rs.shape = shapeMeta
	}
	if rs.links == nil {
		rs.links = map[string]Link{}
	}
	rs.links[name] = l
	return rs
}

// mediaSpec is the canonical per-content-type entry.
type mediaSpec struct {
	schema   Schema
	example  any
	encoding map[string]any
}

// canonicalResponse is the canonical form for one status code. It is the
// single representation consumed by both the response validator and the
// OpenAPI generator.
type canonicalResponse struct {
	description string
	content     map[string]mediaSpec
	headers     map[string]Header
	links       map[string]Link
}

// normalizeResponse flattens any declaration shape into canonical form.
// Normalizing an already-canonical content map is the identity apart from
// the default-description backfill.
func normalizeResponse(status int, rs ResponseSpec) canonicalResponse {
	cr := canonicalResponse{
		description: rs.desc,
		headers:     rs.headers,
		links:       rs.links,
	}

	switch rs.shape {
	case shapeContent:
		cr.content = make(map[string]mediaSpec, len(rs.content))
		for ct, m := range rs.content {
			cr.content[ct] = mediaSpec{schema: m.Schema, example: m.Example, encoding: m.Encoding}
		}
	default: // bare or schema+metadata
		if rs.schema != nil {
			cr.content = map[string]mediaSpec{
				contentTypeJSON: {schema: rs.schema, example: rs.example},
			}
		}
	}

	if cr.description == "" {
		cr.description = statusDescription(status)
	}
	return cr
}

// statusDescription returns the standard HTTP reason phrase, or a generic
// fallback for unassigned codes.
func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Response"
}

// bodyKind tags which body field group a route declares.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyForm
	bodyFile
	bodyFiles
)

// BodySpec is a tagged request-body declaration, built by Body, Form, File,
// or Files.
type BodySpec struct {
	kind     bodyKind
	schema   Schema
	required bool
	desc     string
}

// Body declares a JSON request body. Bodies are required by default.
func Body(s Schema) BodySpec {
	return BodySpec{kind: bodyJSON, schema: s, required: true}
}

// Form declares form fields (multipart/form-data or
// application/x-www-form-urlencoded), validated as the "form" group.
func Form(s Schema) BodySpec {
	return BodySpec{kind: bodyForm, schema: s, required: true}
}

// File declares a single file upload under the multipart field "file".
func File() BodySpec {
	return BodySpec{kind: bodyFile}
}

// Files declares a multi-file upload under the multipart field "files".
func Files() BodySpec {
	return BodySpec{kind: bodyFiles}
}

// Optional marks the body as optional: an empty request body skips both
// the read and the validation of this group.
func (b BodySpec) Optional() BodySpec {
	b.required = false
	return b
}

// Required marks the body as required.
func (b BodySpec) Required() BodySpec {
	b.required = true
	return b
}

// Description sets the request-body description for the document.
func (b BodySpec) Description(d string) BodySpec {
	b.desc = d
	return b
}
