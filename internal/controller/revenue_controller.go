package controller

import (
	"bytes"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tourneyhub/settlement/internal/service"
)

// RevenueController serves the revenue reports.
type RevenueController struct {
	revenue *service.RevenueService
}

// NewRevenueController creates a new RevenueController.
func NewRevenueController(revenue *service.RevenueService) *RevenueController {
	return &RevenueController{revenue: revenue}
}

// Stats handles GET /api/v1/reports/revenue
func (h *RevenueController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.revenue.GetRevenueStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromRevenueStats(stats))
}

// Pending handles GET /api/v1/payments/pending
func (h *RevenueController) Pending(w http.ResponseWriter, r *http.Request) {
	report, err := h.revenue.GetPendingPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPaymentsReport(report))
}

// Verified handles GET /api/v1/payments/verified
func (h *RevenueController) Verified(w http.ResponseWriter, r *http.Request) {
	report, err := h.revenue.GetVerifiedPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPaymentsReport(report))
}

// Export handles GET /api/v1/payments/verified/export. The CSV is buffered
// so a store failure can still be reported as a JSON error.
func (h *RevenueController) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.revenue.ExportVerifiedPayments(r.Context(), &buf); err != nil {
		writeError(w, err)
		return
	}

	filename := "verified-payments-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("failed to write export")
	}
}
