package alto

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	goskema "github.com/reoring/goskema"
)

// maxMultipartMemory is the maximum memory used for multipart form parsing (32 MB).
const maxMultipartMemory = 32 << 20

// Field group names, as they appear in the "in" field of error entries.
const (
	inParams  = "params"
	inQuery   = "query"
	inHeaders = "headers"
	inCookies = "cookies"
	inBody    = "body"
	inForm    = "form"
	inFile    = "file"
	inFiles   = "files"
)

// decodeRequest extracts and validates every declared field group. All
// groups are attempted and their failures merged, unless failFast stops at
// the first failing group. The handler only runs when the returned
// ValidationErrors map is empty.
func decodeRequest(ctx context.Context, ri *routeInfo, req *http.Request, failFast bool) (*Ctx, ValidationErrors) {
	c := &Ctx{req: req, route: ri}
	verrs := ValidationErrors{}

	failed := func() bool { return failFast && len(verrs) > 0 }

	// Raw values are extracted unconditionally; validation replaces them
	// with decoded, schema-coerced values where a schema is declared.
	rawParams := extractParams(ri, req)
	rawQuery := collapseValues(req.URL.Query())
	rawHeaders := extractHeaders(req)
	rawCookies := extractCookies(req)

	c.params = validateGroup(ctx, inParams, ri.params, rawParams, verrs)
	if !failed() {
		c.query = validateGroup(ctx, inQuery, ri.query, rawQuery, verrs)
	}
	if !failed() {
		decoded := validateGroup(ctx, inHeaders, ri.headers, rawHeaders, verrs)
		// Decoded header fields augment the raw map rather than replacing
		// it, so undeclared headers remain accessible to handlers.
		c.headers = rawHeaders
		if ri.headers != nil && len(verrs[inHeaders]) == 0 {
			for k, v := range decoded {
				c.headers[strings.ToLower(k)] = v
			}
		}
	}
	if !failed() {
		c.cookies = validateGroup(ctx, inCookies, ri.cookies, rawCookies, verrs)
	}
	if !failed() {
		validateBody(ctx, ri, req, c, verrs)
	}
	if !failed() {
		validateMultipart(ctx, ri, req, c, verrs)
	}

	if len(verrs) == 0 {
		return c, nil
	}
	return c, verrs
}

// validateGroup validates one object-shaped field group. With no declared
// schema the raw values pass through untouched.
func validateGroup(ctx context.Context, group string, s Schema, raw map[string]any, verrs ValidationErrors) map[string]any {
	if s == nil {
		return raw
	}
	decoded, err := s.Parse(ctx, raw)
	if err != nil {
		verrs[group] = append(verrs[group], fieldErrors(group, raw, err)...)
		return raw
	}
	if m, ok := decoded.(map[string]any); ok {
		return m
	}
	return raw
}

// extractParams reads matched path parameters for the names found in the
// route pattern.
func extractParams(ri *routeInfo, req *http.Request) map[string]any {
	params := make(map[string]any, len(ri.paramNames))
	for _, name := range ri.paramNames {
		params[name] = req.PathValue(name)
	}
	return params
}

// collapseValues collapses multi-value keys before validation: exactly one
// value becomes a scalar, two or more remain an array.
func collapseValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		arr := make([]any, len(vs))
		for i, v := range vs {
			arr[i] = v
		}
		out[k] = arr
	}
	return out
}

// extractHeaders lowercases header names; repeated headers keep their
// first value, matching net/http's Get semantics.
func extractHeaders(req *http.Request) map[string]any {
	out := make(map[string]any, len(req.Header))
	for k, vs := range req.Header {
		if len(vs) > 0 {
			out[strings.ToLower(k)] = vs[0]
		}
	}
	return out
}

func extractCookies(req *http.Request) map[string]any {
	cookies := req.Cookies()
	out := make(map[string]any, len(cookies))
	for _, ck := range cookies {
		out[ck.Name] = ck.Value
	}
	return out
}

// validateBody reads and validates the JSON body group. The read is gated:
// the body is only consumed when a schema is declared AND the request
// carries content (or the group is required), so empty bodies are never
// buffered.
func validateBody(ctx context.Context, ri *routeInfo, req *http.Request, c *Ctx, verrs ValidationErrors) {
	if ri.body == nil {
		return
	}
	if req.ContentLength == 0 && !ri.body.required {
		return
	}
	if req.ContentLength == 0 {
		verrs[inBody] = append(verrs[inBody], FieldError{
			In:      inBody,
			Code:    goskema.CodeRequired,
			Message: "request body is required",
		})
		return
	}

	var raw any
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) && !ri.body.required {
			return
		}
		verrs[inBody] = append(verrs[inBody], FieldError{
			In:      inBody,
			Code:    goskema.CodeParseError,
			Message: "invalid JSON body: " + err.Error(),
		})
		return
	}

	decoded, err := ri.body.schema.Parse(ctx, raw)
	if err != nil {
		verrs[inBody] = append(verrs[inBody], fieldErrors(inBody, raw, err)...)
		return
	}
	c.body = decoded
}

// validateMultipart handles the form, file, and files groups. The form is
// parsed at most once and only when one of the groups is declared and the
// request carries content (or a group is required).
func validateMultipart(ctx context.Context, ri *routeInfo, req *http.Request, c *Ctx, verrs ValidationErrors) {
	if ri.form == nil && ri.file == nil && ri.files == nil {
		return
	}
	required := (ri.form != nil && ri.form.required) ||
		(ri.file != nil && ri.file.required) ||
		(ri.files != nil && ri.files.required)
	if req.ContentLength == 0 && !required {
		return
	}

	if err := parseForm(req); err != nil {
		group := inForm
		if ri.form == nil {
			group = inFile
		}
		verrs[group] = append(verrs[group], FieldError{
			In:      group,
			Code:    goskema.CodeParseError,
			Message: "invalid form payload: " + err.Error(),
		})
		return
	}

	if ri.form != nil {
		rawForm := collapseValues(req.PostForm)
		if req.MultipartForm != nil {
			rawForm = collapseValues(url.Values(req.MultipartForm.Value))
		}
		decoded, err := ri.form.schema.Parse(ctx, rawForm)
		if err != nil {
			verrs[inForm] = append(verrs[inForm], fieldErrors(inForm, rawForm, err)...)
		} else if m, ok := decoded.(map[string]any); ok {
			c.form = m
		}
	}

	if ri.file != nil {
		upload, err := formFile(req, uploadFieldFile)
		switch {
		case err == nil:
			c.file = upload
		case ri.file.required:
			verrs[inFile] = append(verrs[inFile], FieldError{
				In:      inFile,
				Code:    goskema.CodeRequired,
				Path:    []string{uploadFieldFile},
				Message: "file upload is required",
			})
		}
	}

	if ri.files != nil {
		uploads := formFiles(req, uploadFieldFiles)
		if len(uploads) == 0 && ri.files.required {
			verrs[inFiles] = append(verrs[inFiles], FieldError{
				In:      inFiles,
				Code:    goskema.CodeRequired,
				Path:    []string{uploadFieldFiles},
				Message: "at least one file upload is required",
			})
		}
		c.files = uploads
	}
}

// parseForm parses multipart or urlencoded form payloads.
func parseForm(req *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return req.ParseMultipartForm(maxMultipartMemory)
	}
	return req.ParseForm()
}
