package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/service"
)

// RefundController handles refund requests and rejection events.
type RefundController struct {
	refunds *service.RefundService
}

// NewRefundController creates a new RefundController.
func NewRefundController(refunds *service.RefundService) *RefundController {
	return &RefundController{refunds: refunds}
}

// CreateRefund handles POST /api/v1/refunds
func (h *RefundController) CreateRefund(w http.ResponseWriter, r *http.Request) {
	var req CreateRefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	paymentID, ok := optionalUUID(w, req.PaymentID)
	if !ok {
		return
	}
	amount, err := optionalCents("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.refunds.CreateRefundRequest(r.Context(), service.CreateRefundRequest{
		Kind:           refund.Kind(req.Kind),
		TournamentID:   req.TournamentID,
		OrganizerID:    req.OrganizerID,
		PlayerID:       req.PlayerID,
		RegistrationID: req.RegistrationID,
		PaymentID:      paymentID,
		Amount:         amount,
		Reason:         req.Reason,
		Actor:          actorFrom(r, ""),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, refundStatusCode(res), FromRefundResult(res))
}

// HandleRejection handles POST /api/v1/rejections. It answers 201 when a
// refund was opened and 200 when one already existed or none was owed.
func (h *RefundController) HandleRejection(w http.ResponseWriter, r *http.Request) {
	var req RejectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	paymentID, ok := optionalUUID(w, req.PaymentID)
	if !ok {
		return
	}

	res, err := h.refunds.OnRejection(r.Context(), service.RejectionEvent{
		Kind:           refund.Kind(req.Kind),
		TournamentID:   req.TournamentID,
		OrganizerID:    req.OrganizerID,
		PlayerID:       req.PlayerID,
		RegistrationID: req.RegistrationID,
		PaymentID:      paymentID,
		Reason:         req.Reason,
		Actor:          actorFrom(r, "system"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, refundStatusCode(res), FromRefundResult(res))
}

// GetRefund handles GET /api/v1/refunds/{id}
func (h *RefundController) GetRefund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid refund id", Code: "invalid_id"})
		return
	}

	req, err := h.refunds.GetRefund(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromRefund(req))
}

// ListRefunds handles GET /api/v1/refunds
func (h *RefundController) ListRefunds(w http.ResponseWriter, r *http.Request) {
	var filter refund.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := refund.Status(s)
		if !status.Valid() {
			writeError(w, invalidQuery("status"))
			return
		}
		filter.Status = &status
	}
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, err := refund.ParseKind(k)
		if err != nil {
			writeError(w, err)
			return
		}
		filter.Kind = &kind
	}

	rows, err := h.refunds.ListRefunds(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*RefundResponse, 0, len(rows))
	for _, req := range rows {
		resp = append(resp, FromRefund(req))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdvanceStatus handles POST /api/v1/refunds/{id}/status
func (h *RefundController) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid refund id", Code: "invalid_id"})
		return
	}

	var req AdvanceRefundRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.refunds.AdvanceStatus(r.Context(), service.AdvanceRefundRequest{
		ID:                  id,
		Status:              refund.Status(req.Status),
		AdminNotes:          req.AdminNotes,
		RefundMethod:        req.RefundMethod,
		RefundTransactionID: req.RefundTransactionID,
		Actor:               actorFrom(r, ""),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromRefundResult(res))
}

func refundStatusCode(res *service.RefundResult) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

// optionalUUID parses an optional id from a request body, writing a 400 on failure.
func optionalUUID(w http.ResponseWriter, s *string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id := parseUUID(*s)
	if id == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment_id", Code: "invalid_id"})
		return nil, false
	}
	return id, true
}
