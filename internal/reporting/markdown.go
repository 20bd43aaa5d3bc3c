package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Strategy Report: %s\n\n", r.Strategy.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Ticker: %s | Capital: $%.2f\n\n", r.Strategy.Ticker, r.Strategy.Capital))

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total PnL | $%.2f |\n", r.Stats.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Premium Collected | $%.2f |\n", r.Stats.TotalPremiumCollected))
	sb.WriteString(fmt.Sprintf("| Current Capital | $%.2f |\n", r.Stats.CurrentCapital))
	sb.WriteString(fmt.Sprintf("| Return on Capital | %.2f%% |\n", r.Stats.ReturnOnCapitalPct))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Stats.WinRatePct))
	sb.WriteString(fmt.Sprintf("| Trades (open/closed) | %d / %d |\n", r.Stats.OpenCount, r.Stats.ClosedCount))
	sb.WriteString("\n")

	// Accumulation
	acc := r.Strategy.Accumulation
	if acc.BTCAccumulated > 0 {
		sb.WriteString("## BTC Accumulation\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| BTC Held | %.6f |\n", acc.BTCAccumulated))
		sb.WriteString(fmt.Sprintf("| Cost Basis | $%.2f |\n", acc.BTCCostBasis))
		sb.WriteString(fmt.Sprintf("| Average Price | $%.2f |\n", acc.AveragePrice))
		sb.WriteString("\n")
	}

	// Plan vs actual
	if r.Plan != nil {
		sb.WriteString("## Plan vs Actual\n\n")
		sb.WriteString("| Metric | Target | Actual | Delta |\n")
		sb.WriteString("|--------|--------|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Premium %% | %.2f | %.2f | %+.2f |\n",
			r.Plan.TargetPremiumPct, r.Plan.AvgPremiumPct, r.Plan.PremiumDelta))
		sb.WriteString(fmt.Sprintf("| Trades/Month | %.1f | %.1f | %+.1f |\n",
			r.Plan.TargetTradesPerMonth, r.Plan.TradesPerMonth, r.Plan.TradesDelta))
		sb.WriteString(fmt.Sprintf("| Monthly Return %% | %.2f | %.2f | %+.2f |\n",
			r.Plan.TargetMonthlyReturn, r.Plan.MonthlyReturnPct, r.Plan.ReturnDelta))
		sb.WriteString("\n")
	}

	// Positions
	sb.WriteString("## Positions\n\n")
	if len(r.Positions) > 0 {
		sb.WriteString("| ID | Type | Action | Strike | Premium | Qty | Status | PnL |\n")
		sb.WriteString("|----|------|--------|--------|---------|-----|--------|-----|\n")
		for _, p := range r.Positions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.2f | %.4f | %s | %.2f |\n",
				p.PositionID, p.Type, p.Action, p.Strike, p.Premium, p.Quantity, p.Status, p.PnL))
		}
	} else {
		sb.WriteString("No positions recorded.\n")
	}
	sb.WriteString("\n")

	// Projection
	if r.Projection != nil {
		sb.WriteString("## Compound Projection\n\n")
		if r.Projection.Simulated {
			sb.WriteString("**Note:** built on simulated prices, not market data.\n\n")
		}
		s := r.Projection.Summary
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Final Capital | $%.2f |\n", s.FinalCapital))
		sb.WriteString(fmt.Sprintf("| Total Invested | $%.2f |\n", s.TotalInvested))
		sb.WriteString(fmt.Sprintf("| Total Profit | $%.2f |\n", s.TotalProfit))
		sb.WriteString(fmt.Sprintf("| ROI | %.2f%% |\n", s.ROIPct))
		sb.WriteString(fmt.Sprintf("| Avg Monthly Profit | $%.2f |\n", s.MonthlyProfit))
		sb.WriteString("\n")

		if len(r.Projection.Yearly) > 0 {
			sb.WriteString("### By Year\n\n")
			sb.WriteString("| Year | Invested | Total | Profit |\n")
			sb.WriteString("|------|----------|-------|--------|\n")
			for _, pt := range r.Projection.Yearly {
				sb.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f |\n",
					pt.Year, pt.CapitalInvested, pt.CapitalTotal, pt.Profit))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
