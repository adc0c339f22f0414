package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// ReportFormat controls how exported values are rendered.
type ReportFormat struct {
	CurrencyPrefix string
	DateLayout     string
}

// RevenueService derives reports from the ledger. Commission rows are
// deduplicated per tournament in every view.
type RevenueService struct {
	ledger *LedgerService
	format ReportFormat
}

func NewRevenueService(ledger *LedgerService, format ReportFormat) *RevenueService {
	if format.DateLayout == "" {
		format.DateLayout = "01/02/2006"
	}
	return &RevenueService{ledger: ledger, format: format}
}

// PaymentsReport lists ledger rows in one status.
type PaymentsReport struct {
	Commissions []*settlement.TournamentCommission
	Fees        []*settlement.PlayerRegistrationFee
}

// Count is the number of entries in the report.
func (r PaymentsReport) Count() int {
	return len(r.Commissions) + len(r.Fees)
}

func (s *RevenueService) GetRevenueStats(ctx context.Context) (settlement.RevenueStats, error) {
	commissions, err := s.ledger.ListCommissions(ctx, settlement.ListFilter{})
	if err != nil {
		return settlement.RevenueStats{}, err
	}
	fees, err := s.ledger.ListRegistrationFees(ctx, settlement.ListFilter{})
	if err != nil {
		return settlement.RevenueStats{}, err
	}
	return settlement.ComputeStats(commissions, fees), nil
}

// GetPendingPayments returns rows awaiting admin verification (status paid).
func (s *RevenueService) GetPendingPayments(ctx context.Context) (PaymentsReport, error) {
	return s.byStatus(ctx, settlement.StatusPaid)
}

// GetVerifiedPayments returns verified rows.
func (s *RevenueService) GetVerifiedPayments(ctx context.Context) (PaymentsReport, error) {
	return s.byStatus(ctx, settlement.StatusVerified)
}

// byStatus picks the latest commission row per tournament across all statuses
// before filtering, so the work lists show the row organizers pay against and
// an older duplicate never adds a second entry.
func (s *RevenueService) byStatus(ctx context.Context, status settlement.PaymentStatus) (PaymentsReport, error) {
	commissions, err := s.ledger.ListCommissions(ctx, settlement.ListFilter{})
	if err != nil {
		return PaymentsReport{}, err
	}
	fees, err := s.ledger.ListRegistrationFees(ctx, settlement.ListFilter{Status: &status})
	if err != nil {
		return PaymentsReport{}, err
	}

	report := PaymentsReport{Fees: fees}
	for _, c := range settlement.LatestCommissions(commissions) {
		if c.Status == status {
			report.Commissions = append(report.Commissions, c)
		}
	}
	return report, nil
}

var exportHeader = []string{"Tournament", "Organizer", "Commission %", "Amount", "Verified Date", "Verified By"}

// ExportVerifiedPayments writes verified tournament commissions as CSV.
func (s *RevenueService) ExportVerifiedPayments(ctx context.Context, w io.Writer) error {
	report, err := s.GetVerifiedPayments(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range report.Commissions {
		if err := cw.Write(s.exportRow(c)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *RevenueService) exportRow(c *settlement.TournamentCommission) []string {
	verifiedDate, verifiedBy := "", ""
	if c.VerifiedAt != nil {
		verifiedDate = c.VerifiedAt.Format(s.format.DateLayout)
	}
	if c.VerifiedBy != nil {
		verifiedBy = *c.VerifiedBy
	}
	return []string{
		c.TournamentID,
		c.OrganizerID,
		c.CommissionPercentage.String() + "%",
		s.format.CurrencyPrefix + settlement.FormatCents(c.CommissionAmount),
		verifiedDate,
		verifiedBy,
	}
}
