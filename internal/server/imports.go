package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
)

// ImportHandler serves the one-shot parse endpoint and the reconciliation sessions.
type ImportHandler struct {
	extractor  llm.BillExtractor
	reconciler *reconcile.Reconciler
	sessions   *reconcile.SessionStore
	logger     *slog.Logger
}

func NewImportHandler(extractor llm.BillExtractor, reconciler *reconcile.Reconciler, sessions *reconcile.SessionStore, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{extractor: extractor, reconciler: reconciler, sessions: sessions, logger: logger}
}

type importRequest struct {
	Text *string `json:"text"`
}

func decodeImportRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	var req importRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		return "", &common.ValidationError{Message: "request body must be a JSON object"}
	}
	if req.Text == nil {
		return "", &common.ValidationError{Field: "text", Message: "is required"}
	}
	return *req.Text, nil
}

// extractionDetails is the client-safe description of an extraction failure.
func extractionDetails(err error) string {
	var (
		up *common.UpstreamError
		em *common.EmptyResponseError
		mf *common.MalformedResponseError
	)
	switch {
	case errors.As(err, &up):
		return fmt.Sprintf("Completion service error: %d", up.Status)
	case errors.As(err, &em):
		return em.Error()
	case errors.As(err, &mf):
		return mf.Reason
	default:
		return "Unknown error occurred"
	}
}

// ImportBills handles POST /api/import-bills.
func (h *ImportHandler) ImportBills(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	text, err := decodeImportRequest(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid input", validationDetails(err))
		return
	}

	bills, err := h.extractor.ExtractBills(r.Context(), text)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			WriteError(w, http.StatusBadRequest, "Invalid input", validationDetails(err))
			return
		}
		h.logger.Error("http.import_bills.failed", "req_id", common.RequestIDFromContext(r.Context()), "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to parse bills", extractionDetails(err))
		return
	}
	if bills == nil {
		bills = []llm.ParsedBill{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

// CreateSession handles POST /api/imports: extract the paste and open a session with every
// candidate selected.
func (h *ImportHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := common.UserIDFromContext(ctx)
	if userID == "" {
		respondError(w, r, h.logger, &common.AuthRequiredError{})
		return
	}

	text, err := decodeImportRequest(w, r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	bills, err := h.extractor.ExtractBills(ctx, text)
	if err != nil {
		if common.IsExtractionFailure(err) {
			h.logger.Error("http.imports.extract_failed", "req_id", common.RequestIDFromContext(ctx), "error", err)
			WriteError(w, HTTPStatus(err), "Failed to parse bills", extractionDetails(err))
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	s := h.sessions.Create(userID)
	if _, err := s.Present(bills); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("http.imports.created", "req_id", common.RequestIDFromContext(ctx), "session_id", s.ID, "candidates", len(bills))
	WriteJSON(w, http.StatusCreated, s.View())
}

func (h *ImportHandler) session(w http.ResponseWriter, r *http.Request) (*reconcile.Session, bool) {
	userID := common.UserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, r, h.logger, &common.AuthRequiredError{})
		return nil, false
	}
	s, err := h.sessions.Get(r.PathValue("id"), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return nil, false
	}
	return s, true
}

// GetSession handles GET /api/imports/{id}.
func (h *ImportHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.View())
}

type selectionRequest struct {
	Selected *bool `json:"selected"`
}

// SetSelection handles PUT /api/imports/{id}/selection/{index} and, without an index,
// PUT /api/imports/{id}/selection for select/deselect all.
func (h *ImportHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Selected == nil {
		respondError(w, r, h.logger, &common.ValidationError{Field: "selected", Message: "is required"})
		return
	}

	raw := r.PathValue("index")
	if raw == "" {
		err := s.SetAll(*req.Selected)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, s.View())
		return
	}

	index, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, h.logger, &common.ValidationError{Field: "index", Value: raw, Message: "must be an integer"})
		return
	}
	if err := s.SetSelected(index, *req.Selected); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, s.View())
}

// Commit handles POST /api/imports/{id}/commit.
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	start := time.Now()
	report, err := h.reconciler.Commit(r.Context(), s, nil)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("http.imports.committed",
		"req_id", common.RequestIDFromContext(r.Context()),
		"session_id", s.ID,
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	WriteJSON(w, http.StatusOK, s.View())
}

// DeleteSession handles DELETE /api/imports/{id}.
func (h *ImportHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := common.UserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, r, h.logger, &common.AuthRequiredError{})
		return
	}
	if err := h.sessions.Delete(r.PathValue("id"), userID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
