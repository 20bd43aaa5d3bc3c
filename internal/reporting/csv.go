package reporting

import (
	"fmt"
	"strings"
	"time"

	"btcwheel/internal/domain"
)

// RenderPositionsCSV renders positions as a CSV string.
func RenderPositionsCSV(positions []*domain.Position) string {
	var sb strings.Builder

	// Header
	sb.WriteString("position_id,strategy_id,type,action,strike,premium,quantity,")
	sb.WriteString("open_date,expiry,status,assignment_price,pnl\n")

	// Rows
	for _, p := range positions {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.2f,%.2f,%.6f,%s,%s,%s,%.2f,%.2f\n",
			p.PositionID,
			p.StrategyID,
			p.Type,
			p.Action,
			p.Strike,
			p.Premium,
			p.Quantity,
			p.OpenDate.UTC().Format(time.RFC3339),
			p.Expiry.UTC().Format(time.RFC3339),
			p.Status,
			p.AssignmentPrice,
			p.PnL,
		))
	}

	return sb.String()
}

// RenderProjectionCSV renders projection points as a CSV string.
func RenderProjectionCSV(points []domain.ProjectionPoint) string {
	var sb strings.Builder

	sb.WriteString("day,month,year,capital_invested,capital_total,profit\n")

	for _, pt := range points {
		sb.WriteString(fmt.Sprintf("%d,%d,%d,%.2f,%.2f,%.2f\n",
			pt.Day,
			pt.Month,
			pt.Year,
			pt.CapitalInvested,
			pt.CapitalTotal,
			pt.Profit,
		))
	}

	return sb.String()
}
