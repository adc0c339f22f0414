package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/service"
)

// LedgerController handles commission and registration fee requests.
type LedgerController struct {
	ledger            *service.LedgerService
	defaultPercentage decimal.Decimal
}

// NewLedgerController creates a new LedgerController. defaultPercentage is
// applied when a create request omits commission_percentage.
func NewLedgerController(ledger *service.LedgerService, defaultPercentage decimal.Decimal) *LedgerController {
	return &LedgerController{ledger: ledger, defaultPercentage: defaultPercentage}
}

func (h *LedgerController) percentage(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return h.defaultPercentage
	}
	return *p
}

// CreateCommission handles POST /api/v1/commissions
func (h *LedgerController) CreateCommission(w http.ResponseWriter, r *http.Request) {
	var req CreateCommissionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	total, err := optionalCents("total_amount", req.TotalAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.ledger.CreateTournamentCommission(r.Context(), service.CreateCommissionRequest{
		TournamentID: req.TournamentID,
		OrganizerID:  req.OrganizerID,
		TotalAmount:  total,
		Percentage:   h.percentage(req.CommissionPercentage),
		Actor:        actorFrom(r, req.OrganizerID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromCommission(c))
}

// GetCommission handles GET /api/v1/commissions/{id}
func (h *LedgerController) GetCommission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid commission id", Code: "invalid_id"})
		return
	}

	c, err := h.ledger.GetCommission(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromCommission(c))
}

// GetTournamentCommission handles GET /api/v1/tournaments/{tournamentID}/commission
// and returns the latest commission row for the tournament.
func (h *LedgerController) GetTournamentCommission(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.GetCommissionForRefund(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no commission for tournament", Code: "not_found"})
		return
	}

	writeJSON(w, http.StatusOK, FromCommission(c))
}

// ListCommissions handles GET /api/v1/commissions
func (h *LedgerController) ListCommissions(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.ledger.ListCommissions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*CommissionResponse, 0, len(rows))
	for _, c := range rows {
		resp = append(resp, FromCommission(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateRegistrationFee handles POST /api/v1/registration-fees
func (h *LedgerController) CreateRegistrationFee(w http.ResponseWriter, r *http.Request) {
	var req CreateFeeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	fee, err := optionalCents("registration_fee", req.RegistrationFee)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := h.ledger.CreatePlayerRegistrationFee(r.Context(), service.CreateFeeRequest{
		TournamentID:    req.TournamentID,
		PlayerID:        req.PlayerID,
		RegistrationID:  req.RegistrationID,
		RegistrationFee: fee,
		Percentage:      h.percentage(req.CommissionPercentage),
		Actor:           actorFrom(r, req.PlayerID),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromFee(f))
}

// GetRegistrationFee handles GET /api/v1/registration-fees/{id}
func (h *LedgerController) GetRegistrationFee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid registration fee id", Code: "invalid_id"})
		return
	}

	f, err := h.ledger.GetRegistrationFee(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromFee(f))
}

// ListRegistrationFees handles GET /api/v1/registration-fees
func (h *LedgerController) ListRegistrationFees(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.ledger.ListRegistrationFees(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*FeeResponse, 0, len(rows))
	for _, f := range rows {
		resp = append(resp, FromFee(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitProof handles POST /api/v1/payments/{type}/{id}/proof
func (h *LedgerController) SubmitProof(w http.ResponseWriter, r *http.Request) {
	paymentType, id, ok := paymentRef(w, r)
	if !ok {
		return
	}

	var req SubmitProofRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.ledger.SubmitPaymentProof(r.Context(), service.SubmitProofRequest{
		Type:          paymentType,
		ID:            id,
		ProofURL:      req.ProofURL,
		PaymentMethod: req.PaymentMethod,
		Actor:         actorFrom(r, ""),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPaymentResult(res))
}

func ledgerFilter(r *http.Request) (settlement.ListFilter, error) {
	var filter settlement.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := settlement.PaymentStatus(s)
		if !status.Valid() {
			return filter, invalidQuery("status")
		}
		filter.Status = &status
	}
	if t := r.URL.Query().Get("tournament_id"); t != "" {
		filter.TournamentID = &t
	}
	return filter, nil
}

// paymentRef reads {type} and {id} from the path, writing a 400 on failure.
func paymentRef(w http.ResponseWriter, r *http.Request) (settlement.PaymentType, uuid.UUID, bool) {
	paymentType, err := settlement.ParsePaymentType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, err)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return "", uuid.Nil, false
	}
	return paymentType, id, true
}
