package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/profiles"
	"github.com/joseph-ayodele/bills-tracker/internal/reports"
)

// ReportsHandler serves the dashboard, reports, calendar and profile endpoints.
type ReportsHandler struct {
	reports  *reports.Service
	profiles *profiles.Service
	logger   *slog.Logger
}

func NewReportsHandler(rs *reports.Service, ps *profiles.Service, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: rs, profiles: ps, logger: logger}
}

// Overview handles GET /api/reports/overview.
func (h *ReportsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	ov, err := h.reports.Overview(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, ov)
}

// Monthly handles GET /api/reports/monthly?year=YYYY.
func (h *ReportsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			respondError(w, r, h.logger, &common.ValidationError{Field: "year", Value: raw, Message: "must be a four digit year"})
			return
		}
		year = y
	}
	months, err := h.reports.Monthly(r.Context(), userID, year)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"months": months})
}

// Categories handles GET /api/reports/categories.
func (h *ReportsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	cats, err := h.reports.Categories(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// Calendar handles GET /api/reports/calendar?month=YYYY-MM.
func (h *ReportsHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var month time.Time
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := time.Parse("2006-01", raw)
		if err != nil {
			respondError(w, r, h.logger, &common.ValidationError{Field: "month", Value: raw, Message: "must be in YYYY-MM format"})
			return
		}
		month = m
	}
	days, err := h.reports.Calendar(r.Context(), userID, month)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}

// GetProfile handles GET /api/profile.
func (h *ReportsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile. Omitted fields keep their current value.
func (h *ReportsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var u entity.ProfileUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&u); err != nil {
		respondError(w, r, h.logger, &common.ValidationError{Message: "request body must be a JSON object"})
		return
	}
	p, err := h.profiles.Update(r.Context(), userID, u)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
