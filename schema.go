package alto

import (
	"context"
	"strconv"
	"strings"

	goskema "github.com/reoring/goskema"
	js "github.com/reoring/goskema/jsonschema"
)

// Schema is the validator handle shared by the request pipeline, the
// response validator, and the OpenAPI generator. Both consumers see the
// same schema, which is what keeps the generated document consistent with
// the runtime validation behavior.
//
// Parse validates a value and returns the decoded result with defaults and
// coercions applied; on failure the returned error carries goskema.Issues.
// Reflect projects the schema into its JSON Schema form for documentation.
type Schema interface {
	Parse(ctx context.Context, v any) (any, error)
	Reflect() (*js.Schema, error)
}

// schemaAdapter wraps a typed goskema.Schema[T] behind the untyped Schema
// interface so route descriptors can hold heterogeneous schemas.
type schemaAdapter[T any] struct {
	s goskema.Schema[T]
}

func (a schemaAdapter[T]) Parse(ctx context.Context, v any) (any, error) {
	out, err := a.s.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a schemaAdapter[T]) Reflect() (*js.Schema, error) {
	return a.s.JSONSchema()
}

// SchemaOf adapts a goskema schema for use in route declarations.
func SchemaOf[T any](s goskema.Schema[T]) Schema {
	return schemaAdapter[T]{s: s}
}

// pointerSegments splits a JSON Pointer ("/items/2/price") into its
// unescaped segments. The root pointer maps to an empty path.
func pointerSegments(ptr string) []string {
	if ptr == "" || ptr == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	segs := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		segs[i] = p
	}
	return segs
}

// valueAtPath walks maps and slices along pointer segments. Returns the
// root value for an empty path and nil when the path does not resolve.
func valueAtPath(root any, segs []string) any {
	cur := root
	for _, seg := range segs {
		switch v := cur.(type) {
		case map[string]any:
			cur = v[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			cur = v[idx]
		default:
			return nil
		}
	}
	return cur
}

// fieldErrors converts a validation failure for one field group into wire
// errors. raw is the pre-validation value of the group, used to attach the
// offending input to each issue.
func fieldErrors(group string, raw any, err error) []FieldError {
	iss, ok := goskema.AsIssues(err)
	if !ok {
		return []FieldError{{
			In:      group,
			Code:    goskema.CodeParseError,
			Message: err.Error(),
		}}
	}

	out := make([]FieldError, 0, len(iss))
	for _, is := range iss {
		segs := pointerSegments(is.Path)
		out = append(out, FieldError{
			In:      group,
			Code:    is.Code,
			Path:    segs,
			Input:   valueAtPath(raw, segs),
			Message: is.Message,
		})
	}
	return out
}
