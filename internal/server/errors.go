package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
)

// FieldIssue is one entry of a 400 response's details.
type FieldIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// HTTPStatus maps an error from the service layer to a response status.
func HTTPStatus(err error) int {
	var (
		auth *common.AuthRequiredError
		none *common.NoSelectionError
		up   *common.UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &auth), errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &none), errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &up):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationDetails flattens validation failures into FieldIssues.
func validationDetails(err error) []FieldIssue {
	var many common.ValidationErrors
	if errors.As(err, &many) {
		out := make([]FieldIssue, 0, len(many))
		for _, ve := range many {
			out = append(out, FieldIssue{Field: ve.Field, Message: ve.Message})
		}
		return out
	}
	var one *common.ValidationError
	if errors.As(err, &one) {
		return []FieldIssue{{Field: one.Field, Message: one.Message}}
	}
	return []FieldIssue{{Message: err.Error()}}
}

// respondError writes err with the mapped status. Server-side failures are logged and their
// text is not echoed back.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := HTTPStatus(err)
	rid := common.RequestIDFromContext(r.Context())
	switch {
	case status == http.StatusBadRequest:
		WriteError(w, status, "Invalid input", validationDetails(err))
	case status >= http.StatusInternalServerError:
		logger.Error("http.request.failed", "req_id", rid, "path", r.URL.Path, "status", status, "error", err)
		msg := "Internal server error"
		if common.IsExtractionFailure(err) {
			msg = "Failed to parse bills"
		}
		WriteError(w, status, msg, nil)
	default:
		WriteError(w, status, err.Error(), nil)
	}
}
