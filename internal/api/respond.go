// Package api serves the read-only HTTP surface over a run's artifacts:
// health, the latest run, and a run by id
package api

import (
	"encoding/json"
	"net/http"

	lumnet "narrativedetect/internal/platform/net"

	perr "narrativedetect/internal/platform/errors"
)

// Envelope is the response body for every endpoint
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusOK, Envelope{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		RequestID:  lumnet.RequestID(r.Context()),
		Data:       data,
	})
}

// RespondError maps err to an HTTP status and writes the error envelope
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := perr.HTTPStatus(err)
	wr := perr.WireFrom(err)
	writeJSON(w, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       wr.Code,
		Error:      wr.Message,
		RequestID:  lumnet.RequestID(r.Context()),
	})
}
