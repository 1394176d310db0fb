package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Imports *ImportHandler
	Bills   *BillsHandler
	Reports *ReportsHandler
	Store   Pinger
}

// NewRouter registers the API routes and wraps them in the middleware chain.
func NewRouter(h Handlers, allowedOrigins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(ImportBillsPath, h.Imports.ImportBills)

	mux.HandleFunc("POST /api/imports", h.Imports.CreateSession)
	mux.HandleFunc("GET /api/imports/{id}", h.Imports.GetSession)
	mux.HandleFunc("PUT /api/imports/{id}/selection", h.Imports.SetSelection)
	mux.HandleFunc("PUT /api/imports/{id}/selection/{index}", h.Imports.SetSelection)
	mux.HandleFunc("POST /api/imports/{id}/commit", h.Imports.Commit)
	mux.HandleFunc("DELETE /api/imports/{id}", h.Imports.DeleteSession)

	mux.HandleFunc("GET /api/bills", h.Bills.List)
	mux.HandleFunc("POST /api/bills", h.Bills.Create)
	mux.HandleFunc("GET /api/bills/export.xlsx", h.Bills.ExportXLSX)
	mux.HandleFunc("GET /api/bills/{id}", h.Bills.Get)
	mux.HandleFunc("PATCH /api/bills/{id}", h.Bills.Update)
	mux.HandleFunc("DELETE /api/bills/{id}", h.Bills.Delete)
	mux.HandleFunc("POST /api/bills/{id}/toggle-paid", h.Bills.TogglePaid)

	mux.HandleFunc("GET /api/reports/overview", h.Reports.Overview)
	mux.HandleFunc("GET /api/reports/monthly", h.Reports.Monthly)
	mux.HandleFunc("GET /api/reports/categories", h.Reports.Categories)
	mux.HandleFunc("GET /api/reports/calendar", h.Reports.Calendar)

	mux.HandleFunc("GET /api/profile", h.Reports.GetProfile)
	mux.HandleFunc("PUT /api/profile", h.Reports.UpdateProfile)

	mux.HandleFunc("GET /healthz", healthz(h.Store))

	return Chain(mux,
		RequestID,
		Recovery(logger),
		Logger(logger),
		CORS(allowedOrigins),
		Auth,
	)
}

func healthz(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
