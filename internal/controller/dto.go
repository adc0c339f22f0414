package controller

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
	"github.com/tourneyhub/settlement/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, string for IDs, validation tags).
// Controllers convert these to service layer DTOs before calling business logic.

// CreateCommissionRequest holds the input for recording a tournament commission.
// A missing commission_percentage falls back to the configured default.
type CreateCommissionRequest struct {
	TournamentID         string           `json:"tournament_id" validate:"required"`
	OrganizerID          string           `json:"organizer_id" validate:"required"`
	TotalAmount          float64          `json:"total_amount" validate:"gte=0"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
}

// CreateFeeRequest holds the input for recording a player's registration fee.
type CreateFeeRequest struct {
	TournamentID         string           `json:"tournament_id" validate:"required"`
	PlayerID             string           `json:"player_id" validate:"required"`
	RegistrationID       string           `json:"registration_id" validate:"required"`
	RegistrationFee      float64          `json:"registration_fee" validate:"gte=0"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
}

// SubmitProofRequest holds a payer's proof of payment.
type SubmitProofRequest struct {
	ProofURL      string `json:"proof_url" validate:"required,url"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// VerifyPaymentRequest holds an admin's decision on a paid row.
type VerifyPaymentRequest struct {
	Decision   string `json:"decision" validate:"required,oneof=approved rejected"`
	VerifierID string `json:"verifier_id" validate:"required"`
	Notes      string `json:"notes"`
}

// ResetPaymentRequest holds the admin correction of a failed row.
type ResetPaymentRequest struct {
	AdminID string `json:"admin_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

// CreateRefundRequest opens a refund by hand. amount 0 refunds everything paid.
type CreateRefundRequest struct {
	Kind           string  `json:"kind" validate:"required,oneof=tournament_commission player_registration"`
	TournamentID   string  `json:"tournament_id" validate:"required"`
	OrganizerID    string  `json:"organizer_id"`
	PlayerID       string  `json:"player_id"`
	RegistrationID string  `json:"registration_id"`
	PaymentID      *string `json:"payment_id,omitempty" validate:"omitempty,uuid"`
	Amount         float64 `json:"amount" validate:"gte=0"`
	Reason         string  `json:"reason" validate:"required"`
}

// RejectionRequest reports a rejected tournament or registration.
type RejectionRequest struct {
	Kind           string  `json:"kind" validate:"required,oneof=tournament_commission player_registration"`
	TournamentID   string  `json:"tournament_id" validate:"required"`
	OrganizerID    string  `json:"organizer_id"`
	PlayerID       string  `json:"player_id"`
	RegistrationID string  `json:"registration_id"`
	PaymentID      *string `json:"payment_id,omitempty" validate:"omitempty,uuid"`
	Reason         string  `json:"reason"`
}

// AdvanceRefundRequest moves a refund to its next status.
type AdvanceRefundRequest struct {
	Status              string `json:"status" validate:"required,oneof=approved rejected processing completed"`
	AdminNotes          string `json:"admin_notes"`
	RefundMethod        string `json:"refund_method"`
	RefundTransactionID string `json:"refund_transaction_id"`
}

// --- Response DTOs ---

// SettlementResponse is the payment-status block shared by both ledgers.
type SettlementResponse struct {
	Status        string     `json:"status"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	ProofURL      *string    `json:"proof_url,omitempty"`
	VerifiedBy    *string    `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CommissionResponse represents a tournament commission in API responses.
type CommissionResponse struct {
	ID                   string  `json:"id"`
	TournamentID         string  `json:"tournament_id"`
	OrganizerID          string  `json:"organizer_id"`
	TotalAmount          float64 `json:"total_amount"`
	CommissionPercentage string  `json:"commission_percentage"`
	CommissionAmount     float64 `json:"commission_amount"`
	SettlementResponse
	CreatedAt time.Time `json:"created_at"`
}

// FeeResponse represents a player registration fee in API responses.
type FeeResponse struct {
	ID                   string  `json:"id"`
	TournamentID         string  `json:"tournament_id"`
	PlayerID             string  `json:"player_id"`
	RegistrationID       string  `json:"registration_id"`
	RegistrationFee      float64 `json:"registration_fee"`
	CommissionPercentage string  `json:"commission_percentage"`
	CommissionAmount     float64 `json:"commission_amount"`
	TotalAmount          float64 `json:"total_amount"`
	SettlementResponse
	CreatedAt time.Time `json:"created_at"`
}

// PaymentResponse wraps a changed ledger row of either type.
type PaymentResponse struct {
	Type         string                `json:"type"`
	Commission   *CommissionResponse   `json:"commission,omitempty"`
	Fee          *FeeResponse          `json:"registration_fee,omitempty"`
	Verification *VerificationResponse `json:"verification,omitempty"`
	Warnings     []string              `json:"warnings,omitempty"`
}

// VerificationResponse represents one verification record.
type VerificationResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	PaymentType string    `json:"payment_type"`
	VerifiedBy  string    `json:"verified_by"`
	VerifiedAt  time.Time `json:"verified_at"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
}

// RefundResponse represents a refund request in API responses.
type RefundResponse struct {
	ID                  string     `json:"id"`
	Kind                string     `json:"kind"`
	TournamentID        string     `json:"tournament_id"`
	OrganizerID         string     `json:"organizer_id,omitempty"`
	PlayerID            string     `json:"player_id,omitempty"`
	RegistrationID      string     `json:"registration_id,omitempty"`
	PaymentID           *string    `json:"payment_id,omitempty"`
	CommissionID        *string    `json:"commission_id,omitempty"`
	CommissionAmount    float64    `json:"commission_amount"`
	RefundAmount        float64    `json:"refund_amount"`
	Reason              string     `json:"reason"`
	Status              string     `json:"status"`
	AdminNotes          *string    `json:"admin_notes,omitempty"`
	RefundMethod        *string    `json:"refund_method,omitempty"`
	RefundTransactionID *string    `json:"refund_transaction_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// RefundResultResponse carries a refund plus whether this call created it.
// Refund is absent when a rejection needed no refund.
type RefundResultResponse struct {
	Refund   *RefundResponse `json:"refund,omitempty"`
	Created  bool            `json:"created"`
	Warnings []string        `json:"warnings,omitempty"`
}

// RevenueStatsResponse is the revenue report.
type RevenueStatsResponse struct {
	TotalRevenue            float64                     `json:"total_revenue"`
	CommissionRevenue       float64                     `json:"commission_revenue"`
	FeeCommissionRevenue    float64                     `json:"fee_commission_revenue"`
	VerifiedRevenue         float64                     `json:"verified_revenue"`
	AwaitingPayment         int                         `json:"awaiting_payment"`
	PendingPayments         int                         `json:"pending_payments"`
	VerifiedPayments        int                         `json:"verified_payments"`
	FailedPayments          int                         `json:"failed_payments"`
	DuplicateCommissionRows int                         `json:"duplicate_commission_rows"`
	Tournaments             []TournamentRevenueResponse `json:"tournaments"`
}

// TournamentRevenueResponse is one row of the per-tournament breakdown.
type TournamentRevenueResponse struct {
	TournamentID     string  `json:"tournament_id"`
	CommissionAmount float64 `json:"commission_amount"`
	CommissionStatus string  `json:"commission_status"`
	FeeCommission    float64 `json:"fee_commission"`
	Registrations    int     `json:"registrations"`
	DuplicateRows    int     `json:"duplicate_rows,omitempty"`
	Total            float64 `json:"total"`
}

// PaymentsReportResponse lists ledger rows in one status.
type PaymentsReportResponse struct {
	Count            int                  `json:"count"`
	Commissions      []CommissionResponse `json:"commissions"`
	RegistrationFees []FeeResponse        `json:"registration_fees"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

func fromSettlement(s settlement.Settlement) SettlementResponse {
	return SettlementResponse{
		Status:        string(s.Status),
		PaymentMethod: s.PaymentMethod,
		PaymentDate:   s.PaymentDate,
		ProofURL:      s.ProofURL,
		VerifiedBy:    s.VerifiedBy,
		VerifiedAt:    s.VerifiedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// FromCommission converts a domain commission to API response.
func FromCommission(c *settlement.TournamentCommission) *CommissionResponse {
	return &CommissionResponse{
		ID:                   c.ID.String(),
		TournamentID:         c.TournamentID,
		OrganizerID:          c.OrganizerID,
		TotalAmount:          centsToFloat(c.TotalAmount),
		CommissionPercentage: c.CommissionPercentage.String(),
		CommissionAmount:     centsToFloat(c.CommissionAmount),
		SettlementResponse:   fromSettlement(c.Settlement),
		CreatedAt:            c.CreatedAt,
	}
}

// FromFee converts a domain registration fee to API response.
func FromFee(f *settlement.PlayerRegistrationFee) *FeeResponse {
	return &FeeResponse{
		ID:                   f.ID.String(),
		TournamentID:         f.TournamentID,
		PlayerID:             f.PlayerID,
		RegistrationID:       f.RegistrationID,
		RegistrationFee:      centsToFloat(f.RegistrationFee),
		CommissionPercentage: f.CommissionPercentage.String(),
		CommissionAmount:     centsToFloat(f.CommissionAmount),
		TotalAmount:          centsToFloat(f.TotalAmount),
		SettlementResponse:   fromSettlement(f.Settlement),
		CreatedAt:            f.CreatedAt,
	}
}

// FromPaymentResult converts a changed ledger row to API response.
func FromPaymentResult(res *service.PaymentResult) *PaymentResponse {
	resp := &PaymentResponse{Type: string(res.Payment.Type), Warnings: res.Warnings}
	if res.Payment.Commission != nil {
		resp.Commission = FromCommission(res.Payment.Commission)
	}
	if res.Payment.Fee != nil {
		resp.Fee = FromFee(res.Payment.Fee)
	}
	return resp
}

// FromVerification converts a verification record to API response.
func FromVerification(v *settlement.VerificationRecord) *VerificationResponse {
	return &VerificationResponse{
		ID:          v.ID.String(),
		PaymentID:   v.PaymentID.String(),
		PaymentType: string(v.PaymentType),
		VerifiedBy:  v.VerifiedBy,
		VerifiedAt:  v.VerifiedAt,
		Status:      string(v.Status),
		Notes:       v.Notes,
	}
}

// FromRefund converts a domain refund request to API response.
func FromRefund(r *refund.Request) *RefundResponse {
	resp := &RefundResponse{
		ID:                  r.ID.String(),
		Kind:                string(r.Kind),
		TournamentID:        r.TournamentID,
		OrganizerID:         r.OrganizerID,
		PlayerID:            r.PlayerID,
		RegistrationID:      r.RegistrationID,
		CommissionAmount:    centsToFloat(r.CommissionAmount),
		RefundAmount:        centsToFloat(r.RefundAmount),
		Reason:              r.Reason,
		Status:              string(r.Status),
		AdminNotes:          r.AdminNotes,
		RefundMethod:        r.RefundMethod,
		RefundTransactionID: r.RefundTransactionID,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		CompletedAt:         r.CompletedAt,
	}
	if r.PaymentID != nil {
		pid := r.PaymentID.String()
		resp.PaymentID = &pid
	}
	if r.CommissionID != nil {
		cid := r.CommissionID.String()
		resp.CommissionID = &cid
	}
	return resp
}

// FromRefundResult converts a refund operation result to API response.
func FromRefundResult(res *service.RefundResult) *RefundResultResponse {
	resp := &RefundResultResponse{Created: res.Created, Warnings: res.Warnings}
	if res.Refund != nil {
		resp.Refund = FromRefund(res.Refund)
	}
	return resp
}

// FromRevenueStats converts revenue stats to API response.
func FromRevenueStats(s settlement.RevenueStats) *RevenueStatsResponse {
	resp := &RevenueStatsResponse{
		TotalRevenue:            centsToFloat(s.TotalRevenue),
		CommissionRevenue:       centsToFloat(s.CommissionRevenue),
		FeeCommissionRevenue:    centsToFloat(s.FeeCommissionRevenue),
		VerifiedRevenue:         centsToFloat(s.VerifiedRevenue),
		AwaitingPayment:         s.AwaitingPayment,
		PendingPayments:         s.AwaitingVerification,
		VerifiedPayments:        s.VerifiedPayments,
		FailedPayments:          s.FailedPayments,
		DuplicateCommissionRows: s.DuplicateCommissionRows,
		Tournaments:             make([]TournamentRevenueResponse, 0, len(s.Tournaments)),
	}
	for _, t := range s.Tournaments {
		resp.Tournaments = append(resp.Tournaments, TournamentRevenueResponse{
			TournamentID:     t.TournamentID,
			CommissionAmount: centsToFloat(t.CommissionAmount),
			CommissionStatus: string(t.CommissionStatus),
			FeeCommission:    centsToFloat(t.FeeCommission),
			Registrations:    t.Registrations,
			DuplicateRows:    t.DuplicateRows,
			Total:            centsToFloat(t.Total()),
		})
	}
	return resp
}

// FromPaymentsReport converts a status report to API response.
func FromPaymentsReport(r service.PaymentsReport) *PaymentsReportResponse {
	resp := &PaymentsReportResponse{
		Count:            r.Count(),
		Commissions:      make([]CommissionResponse, 0, len(r.Commissions)),
		RegistrationFees: make([]FeeResponse, 0, len(r.Fees)),
	}
	for _, c := range r.Commissions {
		resp.Commissions = append(resp.Commissions, *FromCommission(c))
	}
	for _, f := range r.Fees {
		resp.RegistrationFees = append(resp.RegistrationFees, *FromFee(f))
	}
	return resp
}

// maxAmountFloat is the largest dollar amount accepted on the wire.
const maxAmountFloat = 922337203685477.0

// floatToCents converts a positive float dollar amount to cents, rounding to the nearest cent.
func floatToCents(f float64) (int64, error) {
	return amountToCents("amount", f)
}

// optionalCents is floatToCents that lets zero through.
func optionalCents(field string, f float64) (int64, error) {
	if f == 0 {
		return 0, nil
	}
	return amountToCents(field, f)
}

func amountToCents(field string, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domainErrors.NewValidationError(field, "must be a finite number")
	}
	if f <= 0 {
		return 0, domainErrors.NewValidationError(field, "must be greater than 0")
	}
	if f > maxAmountFloat {
		return 0, domainErrors.NewValidationError(field, fmt.Sprintf("must not exceed %.0f", maxAmountFloat))
	}
	return int64(math.Round(f * 100)), nil
}

// centsToFloat converts cents to a float dollar amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}

// parseUUID parses a UUID string, returning nil if invalid.
func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
