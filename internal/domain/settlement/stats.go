package settlement

import "sort"

// RevenueStats summarizes the ledger for reporting.
//
// Commission rows are deduplicated by tournament before anything is summed or
// counted: upstream retries can create several rows for one obligation. The
// first row seen supplies the amount; the latest row supplies the status,
// since that is the row organizers pay against.
type RevenueStats struct {
	TotalRevenue         int64 // commission + fee commission, all statuses
	CommissionRevenue    int64
	FeeCommissionRevenue int64
	VerifiedRevenue      int64

	AwaitingPayment      int // status pending
	AwaitingVerification int // status paid; reported as "pending payments"
	VerifiedPayments     int
	FailedPayments       int

	DuplicateCommissionRows int
	Tournaments             []TournamentRevenue
}

// TournamentRevenue is the per-tournament breakdown.
type TournamentRevenue struct {
	TournamentID     string
	CommissionAmount int64
	CommissionStatus PaymentStatus
	FeeCommission    int64
	Registrations    int
	DuplicateRows    int
}

// Total is the platform revenue attributed to the tournament.
func (t TournamentRevenue) Total() int64 {
	return t.CommissionAmount + t.FeeCommission
}

// DedupCommissions keeps the first row seen per tournament, preserving input order.
// The second return value counts the dropped duplicates per tournament.
func DedupCommissions(rows []*TournamentCommission) ([]*TournamentCommission, map[string]int) {
	seen := make(map[string]struct{}, len(rows))
	dropped := make(map[string]int)
	out := make([]*TournamentCommission, 0, len(rows))
	for _, c := range rows {
		if c == nil {
			continue
		}
		if _, ok := seen[c.TournamentID]; ok {
			dropped[c.TournamentID]++
			continue
		}
		seen[c.TournamentID] = struct{}{}
		out = append(out, c)
	}
	return out, dropped
}

// LatestCommissions keeps the most recently created row per tournament, the
// row a refund is drawn against. rows must be oldest first; the result keeps
// the relative order of the kept rows.
func LatestCommissions(rows []*TournamentCommission) []*TournamentCommission {
	last := make(map[string]int, len(rows))
	for i, c := range rows {
		if c != nil {
			last[c.TournamentID] = i
		}
	}
	out := make([]*TournamentCommission, 0, len(last))
	for i, c := range rows {
		if c != nil && last[c.TournamentID] == i {
			out = append(out, c)
		}
	}
	return out
}

// ComputeStats derives RevenueStats from raw ledger rows.
func ComputeStats(commissions []*TournamentCommission, fees []*PlayerRegistrationFee) RevenueStats {
	var stats RevenueStats
	deduped, dropped := DedupCommissions(commissions)
	current := make(map[string]*TournamentCommission, len(deduped))
	for _, c := range LatestCommissions(commissions) {
		current[c.TournamentID] = c
	}

	byTournament := make(map[string]*TournamentRevenue)
	entry := func(id string) *TournamentRevenue {
		tr, ok := byTournament[id]
		if !ok {
			tr = &TournamentRevenue{TournamentID: id}
			byTournament[id] = tr
		}
		return tr
	}

	for _, c := range deduped {
		status := current[c.TournamentID].Status
		stats.CommissionRevenue += c.CommissionAmount
		stats.count(status, c.CommissionAmount)

		tr := entry(c.TournamentID)
		tr.CommissionAmount = c.CommissionAmount
		tr.CommissionStatus = status
		tr.DuplicateRows = dropped[c.TournamentID]
		stats.DuplicateCommissionRows += dropped[c.TournamentID]
	}

	for _, f := range fees {
		if f == nil {
			continue
		}
		stats.FeeCommissionRevenue += f.CommissionAmount
		stats.count(f.Status, f.CommissionAmount)

		tr := entry(f.TournamentID)
		tr.FeeCommission += f.CommissionAmount
		tr.Registrations++
	}

	stats.TotalRevenue = stats.CommissionRevenue + stats.FeeCommissionRevenue

	stats.Tournaments = make([]TournamentRevenue, 0, len(byTournament))
	for _, tr := range byTournament {
		stats.Tournaments = append(stats.Tournaments, *tr)
	}
	sort.Slice(stats.Tournaments, func(i, j int) bool {
		return stats.Tournaments[i].TournamentID < stats.Tournaments[j].TournamentID
	})
	return stats
}

func (s *RevenueStats) count(status PaymentStatus, amount int64) {
	switch status {
	case StatusPending:
		s.AwaitingPayment++
	case StatusPaid:
		s.AwaitingVerification++
	case StatusVerified:
		s.VerifiedPayments++
		s.VerifiedRevenue += amount
	case StatusFailed:
		s.FailedPayments++
	}
}
