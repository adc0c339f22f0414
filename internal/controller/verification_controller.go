package controller

import (
	"net/http"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/service"
)

// VerificationController handles admin decisions on submitted payments.
type VerificationController struct {
	verification *service.VerificationService
}

// NewVerificationController creates a new VerificationController.
func NewVerificationController(verification *service.VerificationService) *VerificationController {
	return &VerificationController{verification: verification}
}

// Verify handles POST /api/v1/payments/{type}/{id}/verify
func (h *VerificationController) Verify(w http.ResponseWriter, r *http.Request) {
	paymentType, id, ok := paymentRef(w, r)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.verification.VerifyPayment(r.Context(), service.VerifyRequest{
		Type:       paymentType,
		ID:         id,
		Decision:   settlement.Decision(req.Decision),
		VerifierID: req.VerifierID,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := FromPaymentResult(&res.PaymentResult)
	if res.Record != nil {
		resp.Verification = FromVerification(res.Record)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset handles POST /api/v1/payments/{type}/{id}/reset
func (h *VerificationController) Reset(w http.ResponseWriter, r *http.Request) {
	paymentType, id, ok := paymentRef(w, r)
	if !ok {
		return
	}

	var req ResetPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.verification.ResetFailedPayment(r.Context(), service.ResetRequest{
		Type:    paymentType,
		ID:      id,
		AdminID: req.AdminID,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPaymentResult(res))
}

// History handles GET /api/v1/payments/{type}/{id}/verifications
func (h *VerificationController) History(w http.ResponseWriter, r *http.Request) {
	_, id, ok := paymentRef(w, r)
	if !ok {
		return
	}

	records, err := h.verification.VerificationHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*VerificationResponse, 0, len(records))
	for _, v := range records {
		resp = append(resp, FromVerification(v))
	}
	writeJSON(w, http.StatusOK, resp)
}
