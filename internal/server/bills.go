package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/bills"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/export"
)

// BillsHandler serves bill CRUD and the XLSX download.
type BillsHandler struct {
	bills    *bills.Service
	exporter *export.Service
	logger   *slog.Logger
}

func NewBillsHandler(svc *bills.Service, exporter *export.Service, logger *slog.Logger) *BillsHandler {
	return &BillsHandler{bills: svc, exporter: exporter, logger: logger}
}

type billRequest struct {
	Name      *string          `json:"name"`
	Amount    *decimal.Decimal `json:"amount"`
	DueDate   *string          `json:"dueDate"`
	Category  *string          `json:"category"`
	IsPaid    *bool            `json:"isPaid"`
	Frequency *string          `json:"frequency"`
}

func parseDate(field, s string) (time.Time, error) {
	if verr := common.Date(field, s); verr != nil {
		return time.Time{}, verr
	}
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		return time.Time{}, &common.ValidationError{Field: field, Value: s, Message: "is required"}
	}
	return t, nil
}

func (req billRequest) update() (entity.BillUpdate, error) {
	u := entity.BillUpdate{
		Name:      req.Name,
		Amount:    req.Amount,
		Category:  req.Category,
		IsPaid:    req.IsPaid,
		Frequency: req.Frequency,
	}
	if req.DueDate != nil {
		d, err := parseDate("dueDate", *req.DueDate)
		if err != nil {
			return u, err
		}
		u.DueDate = &d
	}
	return u, nil
}

func (req billRequest) input() (entity.BillInput, error) {
	v := common.NewValidator().
		Field("name", req.Name, common.Required).
		Field("amount", req.Amount, common.Required).
		Field("dueDate", req.DueDate, common.Required, common.Date).
		Field("category", req.Category, common.Required)
	if err := v.Err(); err != nil {
		return entity.BillInput{}, err
	}
	due, err := parseDate("dueDate", *req.DueDate)
	if err != nil {
		return entity.BillInput{}, err
	}
	in := entity.BillInput{
		Name:     *req.Name,
		Amount:   *req.Amount,
		DueDate:  due,
		Category: *req.Category,
	}
	if req.IsPaid != nil {
		in.IsPaid = *req.IsPaid
	}
	if req.Frequency != nil {
		in.Frequency = *req.Frequency
	}
	return in, nil
}

func decodeBillRequest(w http.ResponseWriter, r *http.Request) (billRequest, error) {
	var req billRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		return req, &common.ValidationError{Message: "request body must be a JSON object"}
	}
	return req, nil
}

// billFilter reads ?paid=, ?category=, ?from= and ?to= (dates, to exclusive).
func billFilter(r *http.Request) (entity.BillFilter, error) {
	q := r.URL.Query()
	var f entity.BillFilter
	if raw := q.Get("paid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			return f, &common.ValidationError{Field: "paid", Value: raw, Message: "must be true or false"}
		}
		f.IsPaid = &paid
	}
	f.Category = q.Get("category")
	if raw := q.Get("from"); raw != "" {
		t, err := parseDate("from", raw)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := parseDate("to", raw)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	return f, nil
}

func billID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	if verr := common.UUID("id", raw); verr != nil {
		return uuid.Nil, verr
	}
	return uuid.MustParse(raw), nil
}

// List handles GET /api/bills.
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	f, err := billFilter(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	list, err := h.bills.List(r.Context(), userID, f)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []*entity.Bill{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bills": list, "count": len(list)})
}

// Create handles POST /api/bills.
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	req, err := decodeBillRequest(w, r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	b, err := h.bills.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, b)
}

// Get handles GET /api/bills/{id}.
func (h *BillsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := billID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	b, err := h.bills.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

// Update handles PATCH /api/bills/{id}.
func (h *BillsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := billID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	req, err := decodeBillRequest(w, r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	u, err := req.update()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	b, err := h.bills.Update(r.Context(), userID, id, u)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

// TogglePaid handles POST /api/bills/{id}/toggle-paid.
func (h *BillsHandler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := billID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	b, err := h.bills.TogglePaid(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/bills/{id}.
func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := billID(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.bills.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportXLSX handles GET /api/bills/export.xlsx. It accepts the same filters as List.
func (h *BillsHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	f, err := billFilter(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	data, err := h.exporter.ExportBillsXLSX(r.Context(), userID, f)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", constants.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+constants.DefaultExportName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func requireUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	userID := common.UserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, r, logger, &common.AuthRequiredError{})
		return "", false
	}
	return userID, true
}
