// Package stats aggregates a strategy's position ledger into portfolio
// statistics. Everything here is a pure function of its inputs: no
// randomness, no I/O, identical inputs give identical output.
package stats

import (
	"btcwheel/internal/domain"
)

// Compute derives the full Stats block from a strategy and its
// positions. Open positions contribute their realized premium to
// TotalPnL; premium locks in at sale, not at expiry.
func Compute(strategy *domain.Strategy, positions []*domain.Position) domain.Stats {
	s := domain.Stats{
		TotalCount:     len(positions),
		InitialCapital: strategy.Capital,
	}

	for _, p := range positions {
		s.TotalPnL += p.PnL

		switch p.Status {
		case domain.StatusOpen:
			s.OpenCount++
		case domain.StatusClosed:
			s.ClosedCount++
			// Wins and losses are judged on closed positions only;
			// pnl of exactly zero counts as neither.
			if p.PnL > 0 {
				s.WinCount++
			} else if p.PnL < 0 {
				s.LossCount++
			}
			// Premium collected is a closed-trade figure, deliberately
			// distinct from TotalPnL.
			s.TotalPremiumCollected += p.Premium * p.Quantity
		}
	}

	if s.ClosedCount > 0 {
		s.WinRatePct = float64(s.WinCount) / float64(s.ClosedCount) * 100
	}
	if strategy.Capital > 0 {
		s.ReturnOnCapitalPct = s.TotalPnL / strategy.Capital * 100
	}
	s.CurrentCapital = strategy.Capital + s.TotalPnL

	return s
}
