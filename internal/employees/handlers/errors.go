package handlers

import (
	"errors"
	"net/http"
	"strings"

	e "github.com/gartstein/roster/internal/employees/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Detail string       `json:"detail"`
	Errors []e.RowError `json:"errors,omitempty"`
}

// mapServiceError maps domain or repository errors to an HTTP status and body.
func (h *EmployeeHandler) mapServiceError(err error) (int, errorResponse) {
	if rows, ok := e.AsRowErrors(err); ok {
		return http.StatusBadRequest, errorResponse{Detail: "Invalid rows in file", Errors: rows}
	}
	switch {
	case errors.Is(err, e.ErrUnsupportedFormat):
		return http.StatusBadRequest, errorResponse{Detail: "File must be .xlsx or .csv"}
	case errors.Is(err, e.ErrParse):
		return http.StatusBadRequest, errorResponse{Detail: "Error reading file: " + cause(err, e.ErrParse)}
	case errors.Is(err, e.ErrMissingColumns):
		return http.StatusBadRequest, errorResponse{Detail: "Missing required columns in file: " + cause(err, e.ErrMissingColumns)}
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Detail: err.Error()}
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return http.StatusInternalServerError, errorResponse{Detail: "Database error: " + err.Error()}
	}
}

// cause strips the sentinel prefix from an error built as "%w: detail".
func cause(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
