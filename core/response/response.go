// Package response renders JSON API responses and structured errors.
//
// Successful payloads are written with JSON; failures go through Error,
// which converts any error into an HTTPError envelope with a stable
// machine-readable code so clients never see raw internal errors.
package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as an application/json response with the given status.
// Encoding goes directly to the response writer; if encoding fails the
// headers are already sent, so the error is unrecoverable and dropped.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	// No body for statuses that forbid one.
	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

// String writes a text/plain response with the given status.
func String(w http.ResponseWriter, status int, content string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if content != "" {
		_, _ = w.Write([]byte(content))
	}
}

// Error renders err as a JSON HTTPError envelope. Errors that are not
// HTTPError values are mapped to a predefined error by status code
// (500 when the error carries no status).
func Error(w http.ResponseWriter, err error) {
	httpErr := convertToHTTPError(err)
	JSON(w, httpErr.Status, httpErr)
}
