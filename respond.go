package alto

import (
	"context"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
)

// CookieSetter is optionally implemented by response values to set cookies.
type CookieSetter interface {
	Cookies() []*http.Cookie
}

// HeaderSetter is optionally implemented by response values to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// Redirect is returned from a handler to issue an HTTP redirect.
// Redirects pass through the response validator unchecked.
type Redirect struct {
	URL    string
	Status int
}

// Raw is a pre-built response: the author took responsibility for the
// payload, so it bypasses response validation entirely.
type Raw struct {
	Status      int
	ContentType string
	Body        []byte
	Header      http.Header
}

// writeResult encodes a handler result. Pre-built responses (Redirect,
// Stream, Raw) pass through unchanged. Plain values are validated against
// the canonical response schema declared for their status: on success the
// validator's decoded output is serialized, so the wire payload reflects
// schema-applied defaults and coercions; on failure the result is a 500
// contract violation, never a payload pretending to be valid.
func (rt *Router) writeResult(ctx context.Context, w http.ResponseWriter, req *http.Request, ri *routeInfo, result any) {
	switch v := result.(type) {
	case *Redirect:
		status := v.Status
		if status == 0 {
			status = http.StatusFound
		}
		http.Redirect(w, req, v.URL, status)
		return
	case *Stream:
		writeStream(w, v)
		return
	case *Raw:
		for k, vs := range v.Header {
			for _, hv := range vs {
				w.Header().Add(k, hv)
			}
		}
		if v.ContentType != "" {
			w.Header().Set("Content-Type", v.ContentType)
		}
		status := v.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(v.Body)
		return
	}

	if cs, ok := result.(CookieSetter); ok {
		for _, ck := range cs.Cookies() {
			http.SetCookie(w, ck)
		}
	}
	if hs, ok := result.(HeaderSetter); ok {
		hs.SetHeaders(w.Header())
	}

	status := ri.status
	if sc, ok := result.(StatusCoder); ok {
		status = sc.StatusCode()
	}

	if result == nil {
		w.WriteHeader(status)
		return
	}

	payload, err := rt.validateResult(ctx, ri, status, result)
	if err != nil {
		var issues []FieldError
		if cv, ok := err.(*ContractViolation); ok {
			issues = cv.Issues
		}
		rt.logger.LogAttrs(ctx, slog.LevelError, "response contract violation",
			slog.String("method", ri.method),
			slog.String("path", ri.pattern),
			slog.Int("status", status),
			slog.Int("issues", len(issues)),
		)
		rt.respondError(w, req, err)
		return
	}

	writeJSON(w, status, payload)
}

// validateResult checks a plain value against the canonical schema for its
// status. Statuses the author never declared are not policed; the value
// passes through unvalidated.
func (rt *Router) validateResult(ctx context.Context, ri *routeInfo, status int, result any) (any, error) {
	cr, ok := ri.responses[status]
	if !ok {
		return result, nil
	}
	media, ok := cr.content[contentTypeJSON]
	if !ok || media.schema == nil {
		return result, nil
	}

	// Round-trip through JSON so typed handler results and untyped maps
	// validate identically.
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, &ContractViolation{
			Method: ri.method,
			Path:   ri.pattern,
			Status: status,
			Issues: []FieldError{{In: "response", Code: "parse_error", Message: err.Error()}},
		}
	}
	var untyped any
	if err := json.Unmarshal(raw, &untyped); err != nil {
		return nil, &ContractViolation{
			Method: ri.method,
			Path:   ri.pattern,
			Status: status,
			Issues: []FieldError{{In: "response", Code: "parse_error", Message: err.Error()}},
		}
	}

	decoded, err := media.schema.Parse(ctx, untyped)
	if err != nil {
		return nil, &ContractViolation{
			Method: ri.method,
			Path:   ri.pattern,
			Status: status,
			Issues: fieldErrors("response", untyped, err),
		}
	}
	return decoded, nil
}
