package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smallnest/teamgraph/errs"
	"github.com/smallnest/teamgraph/log"
)

// TimestampLayout is the layout of the envelope timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Path      string         `json:"path"`
	Timestamp string         `json:"timestamp"`
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Code      errs.ErrorCode `json:"code"`
	Message   string         `json:"message"`
	Params    []string       `json:"params"`
}

var now = time.Now

func newErrorResponse(r *http.Request, err error) ErrorResponse {
	e := errs.From(err)
	params := e.Params
	if params == nil {
		params = []string{}
	}
	return ErrorResponse{
		Path:      r.URL.Path,
		Timestamp: now().UTC().Format(TimestampLayout),
		Status:    e.Status,
		Error:     http.StatusText(e.Status),
		Code:      e.Code,
		Message:   e.Message,
		Params:    params,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := newErrorResponse(r, err)
	if resp.Status >= http.StatusInternalServerError {
		log.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response: %v", err)
	}
}
