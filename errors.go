package alto

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// FieldError describes a single validation failure within one field group.
type FieldError struct {
	In      string   `json:"in"`
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Input   any      `json:"input,omitempty"`
	Message string   `json:"message"`
}

// ValidationErrors aggregates failures per field group for one request.
type ValidationErrors map[string][]FieldError

// fieldGroupOrder fixes the order in which group errors appear in the
// response body, independent of map iteration.
var fieldGroupOrder = []string{
	inParams, inQuery, inHeaders, inCookies, inBody, inForm, inFile, inFiles,
}

// ValidationProblem is the client error response for request validation
// failures. All declared field groups are attempted before it is built.
type ValidationProblem struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"error"`

	status int
}

// Error summarizes the failure.
func (p *ValidationProblem) Error() string {
	return fmt.Sprintf("%s (%d issues)", p.Message, len(p.Errors))
}

// StatusCode returns the HTTP status code (400 unless overridden).
func (p *ValidationProblem) StatusCode() int {
	if p.status == 0 {
		return http.StatusBadRequest
	}
	return p.status
}

// newValidationProblem flattens per-group errors into the wire shape,
// ordered by field group then by issue order within the group.
func newValidationProblem(verrs ValidationErrors) *ValidationProblem {
	p := &ValidationProblem{Message: "request validation failed"}
	for _, group := range fieldGroupOrder {
		p.Errors = append(p.Errors, verrs[group]...)
	}
	return p
}

// ContractViolation is raised when handler output does not match the
// response schema declared for the status it produced. It is a server
// defect, not a client input problem, and surfaces as a 500.
type ContractViolation struct {
	Method string
	Path   string
	Status int
	Issues []FieldError
}

// Error describes the violated contract.
func (e *ContractViolation) Error() string {
	return fmt.Sprintf("response for %s %s violates declared %d schema (%d issues)",
		e.Method, e.Path, e.Status, len(e.Issues))
}

// StatusCode returns http.StatusInternalServerError.
func (e *ContractViolation) StatusCode() int { return http.StatusInternalServerError }

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized returns a 401 error. Raised during dependency resolution
// when an authorized provider finds no principal.
func Unauthorized(message string) error {
	return &HTTPError{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden returns a 403 error. Raised during dependency resolution when
// the principal's granted scopes do not cover the required scopes.
func Forbidden(message string) error {
	return &HTTPError{Status: http.StatusForbidden, Message: message}
}

// ErrorStatus extracts the HTTP status code from an error. Deadline
// expiry maps to 503 so the Timeout middleware surfaces as advertised.
// Everything else without a StatusCoder is a 500.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorResponder writes a response for a matched error.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// errorRule pairs a predicate with a responder. Rules are checked
// most-recently-registered first; the first match wins, so specific rules
// registered after general ones take precedence.
type errorRule struct {
	match   func(error) bool
	respond ErrorResponder
}

// OnError registers a custom responder for errors matched by the predicate.
func (r *Router) OnError(match func(error) bool, respond ErrorResponder) {
	r.errorRules = append(r.errorRules, errorRule{match: match, respond: respond})
}

// OnErrorAs registers a responder for errors matching the type E.
func OnErrorAs[E error](r *Router, respond func(w http.ResponseWriter, req *http.Request, err E)) {
	r.OnError(
		func(err error) bool {
			var target E
			return errors.As(err, &target)
		},
		func(w http.ResponseWriter, req *http.Request, err error) {
			var target E
			errors.As(err, &target)
			respond(w, req, target)
		},
	)
}

// respondError routes an error through registered responders, falling back
// to the default wire shapes.
func (r *Router) respondError(w http.ResponseWriter, req *http.Request, err error) {
	for i := len(r.errorRules) - 1; i >= 0; i-- {
		if r.errorRules[i].match(err) {
			r.errorRules[i].respond(w, req, err)
			return
		}
	}
	writeErrorResponse(w, err)
}

// writeErrorResponse writes the default JSON encoding for an error.
func writeErrorResponse(w http.ResponseWriter, err error) {
	var vp *ValidationProblem
	if errors.As(err, &vp) {
		writeJSON(w, vp.StatusCode(), vp)
		return
	}

	var cv *ContractViolation
	if errors.As(err, &cv) {
		writeJSON(w, cv.StatusCode(), &ValidationProblem{
			Message: "response contract violation",
			Errors:  cv.Issues,
		})
		return
	}

	status := ErrorStatus(err)
	var he *HTTPError
	if !errors.As(err, &he) {
		he = &HTTPError{Status: status, Message: err.Error()}
	}
	writeJSON(w, status, he)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(v)
}
