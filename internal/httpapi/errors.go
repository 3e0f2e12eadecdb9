package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/eytandecker/simsensors/internal/uavobject"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	Recoverable bool   `json:"recoverable"`
	Timestamp   string `json:"timestamp"`
}

// errorResponse maps an object bus error to a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{
		Error:     err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	switch {
	case errors.Is(err, uavobject.ErrStale):
		resp.Code = "DATA_STALE"
		resp.Recoverable = true
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, uavobject.ErrNotRegistered):
		resp.Code = "OBJECT_NOT_REGISTERED"
		return http.StatusNotFound, resp
	default:
		resp.Code = "UNKNOWN_ERROR"
		return http.StatusInternalServerError, resp
	}
}
