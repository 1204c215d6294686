package main

import (
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/dashboard"
	"github.com/simaogato/wealthsim-backend/internal/usecase/journal"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
	"github.com/simaogato/wealthsim-backend/internal/usecase/reset"
)

const displayCurrency = money.USD

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// formatMoney renders an amount in the display currency, rounded to cents
func formatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(displayCurrency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if minor.IsNegative() {
		return "-" + money.New(minor.Abs().IntPart(), displayCurrency).Display()
	}
	return money.New(minor.IntPart(), displayCurrency).Display()
}

// colorizeMoney renders gains green and losses red
func colorizeMoney(amount decimal.Decimal) string {
	s := formatMoney(amount)
	switch {
	case amount.IsPositive():
		return success.Sprint("+" + s)
	case amount.IsNegative():
		return danger.Sprint(s)
	}
	return s
}

func lastPoints(points []domain.NetWorthPoint, n int) []domain.NetWorthPoint {
	if n <= 0 || n >= len(points) {
		return points
	}
	return points[len(points)-n:]
}

func printDashboard(w io.Writer, d *dashboard.Dashboard) {
	nw := d.NetWorth
	accent.Fprintf(w, "\n== NET WORTH (%s) ==\n", nw.Tier.Name)
	fmt.Fprintf(w, "Total:       %s\n", formatMoney(nw.Total))
	fmt.Fprintf(w, "Liquidity:   %s\n", formatMoney(nw.Liquidity))
	fmt.Fprintf(w, "Invested:    %s\n", formatMoney(nw.Invested))
	fmt.Fprintf(w, "Equity:      %s\n", formatMoney(nw.Equity))
	fmt.Fprintf(w, "Lifestyle:   %s\n", formatMoney(nw.Lifestyle))
	fmt.Fprintf(w, "Ownership:   %s\n", formatMoney(nw.Ownership))
	if d.NextTier != nil {
		fmt.Fprintf(w, "Next tier:   %s at %s\n", d.NextTier.Name, formatMoney(d.NextTier.MinNetWorth))
	}

	if len(d.Gains) > 0 {
		fmt.Fprintln(w)
		accent.Fprintln(w, "Stocks")
		fmt.Fprintf(w, "%-10s %14s %14s %14s\n", "SYMBOL", "COST", "VALUE", "P/L")
		for _, g := range d.Gains {
			symbol := g.Symbol
			if symbol == "" {
				symbol = g.ID
			}
			fmt.Fprintf(w, "%-10s %14s %14s %14s\n", symbol, formatMoney(g.CostBasis), formatMoney(g.MarketValue), colorizeMoney(g.Gain))
		}
	}

	if !d.Refresh.LastRefreshTime.IsZero() {
		fmt.Fprintf(w, "\nLast refresh %s (source: %s)\n", d.Refresh.LastRefreshTime.Format("2006-01-02 15:04:05"), nw.Source)
	}
}

func printOwnership(w io.Writer, b domain.OwnershipBreakdown) {
	accent.Fprintln(w, "\n== OWNERSHIP ==")
	if b.F1Team != nil {
		fmt.Fprintf(w, "F1 team %-20s %14s\n", b.F1Team.Name, formatMoney(b.F1TeamValue))
	}
	for _, h := range b.Horses {
		fmt.Fprintf(w, "Horse   %-20s %14s\n", h.Name, formatMoney(h.Value))
	}
	if b.SportsTeam != nil {
		fmt.Fprintf(w, "Team    %-20s %14s\n", b.SportsTeam.Name, formatMoney(b.SportsTeamValue))
	}
	fmt.Fprintf(w, "Total   %-20s %14s\n", "", formatMoney(b.Total))
}

func printRefresh(res refresh.Result) {
	switch res.Status {
	case refresh.StatusCompleted:
		msg := fmt.Sprintf("Refreshed. Net worth %s", formatMoney(res.Snapshot.TotalNetWorth))
		if res.Corrected {
			msg += " (cash drift corrected)"
		}
		printSuccess(msg)
	case refresh.StatusSkipped:
		printWarn(fmt.Sprintf("Refresh skipped: %s", res.Reason))
	default:
		printError(fmt.Sprintf("Refresh failed: %v", res.Err))
	}
}

func printReset(r reset.Report) {
	if r.Clean() {
		printSuccess(fmt.Sprintf("Reset complete. %d keys cleared.", len(r.ClearedKeys)))
	} else {
		printError(fmt.Sprintf("Reset finished with %d failures.", len(r.Failures)))
	}
	for _, name := range r.Recovered {
		printWarn(fmt.Sprintf("  %s needed a force clear", name))
	}
	for _, key := range r.StrayKeys {
		printWarn(fmt.Sprintf("  %s survived deletion", key))
	}
	for _, f := range r.Failures {
		printError(fmt.Sprintf("  %s: %s", f.Phase, f.Err))
	}
}

func printHistory(w io.Writer, points []domain.NetWorthPoint) {
	if len(points) == 0 {
		printInfo("No net worth history yet.")
		return
	}
	fmt.Fprintf(w, "%-20s %16s %16s\n", "AT", "NET WORTH", "CHANGE")
	prev := points[0].NetWorth
	for _, p := range points {
		fmt.Fprintf(w, "%-20s %16s %16s\n", p.At.Format("2006-01-02 15:04:05"), formatMoney(p.NetWorth), colorizeMoney(p.NetWorth.Sub(prev)))
		prev = p.NetWorth
	}
}

func printEvents(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		printInfo("No activity recorded.")
		return
	}
	for _, e := range entries {
		target := e.Category
		if e.ID != "" {
			target += "/" + e.ID
		}
		fmt.Fprintf(w, "%s  %-18s %-22s %s\n", e.At.Format("2006-01-02 15:04:05"), e.Kind, target, e.Detail)
	}
}
