package alto

import (
	"io"
	"net/http"
)

// Stream is a response type for binary or streaming responses. Return
// *Stream from a handler to bypass JSON encoding and response validation;
// the author takes responsibility for the payload.
type Stream struct {
	ContentType string
	Status      int
	Body        io.Reader
}

// writeStream writes a Stream response.
func writeStream(w http.ResponseWriter, s *Stream) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if s.Body != nil {
		//nolint:errcheck,gosec // best-effort streaming copy
		io.Copy(w, s.Body)
	}
}
