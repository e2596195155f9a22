package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/google/subcommands"

	"tradlyst/internal/analytics"
)

type statsCmd struct {
	env   *Env
	top   int
	daily bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "show journal performance metrics" }
func (*statsCmd) Usage() string {
	return `tradlyst stats [-top N] [-daily]

  Summarises closed trades: net P&L, win rate, profit factor, streaks, best and
  worst trades and the monthly P&L series.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.top, "top", 5, "Number of best and worst trades to list.")
	f.BoolVar(&c.daily, "daily", false, "Also print the P&L of every trading day.")
}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.top < 0 {
		fmt.Fprintln(c.env.errOut(), "-top cannot be negative")
		return subcommands.ExitUsageError
	}

	svc, ok := c.env.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer svc.Close()

	trades, err := svc.Trades.Trades(ctx, svc.UserID)
	if err != nil {
		fmt.Fprintf(c.env.errOut(), "Error loading trades: %v\n", err)
		return subcommands.ExitFailure
	}

	s := analytics.Summarize(trades, c.top)
	if s.TotalTrades == 0 {
		fmt.Fprintln(c.env.out(), "No closed trades yet.")
		return subcommands.ExitSuccess
	}
	c.render(c.env.out(), s)
	return subcommands.ExitSuccess
}

func (c *statsCmd) render(w io.Writer, s *analytics.Summary) {
	cur := c.env.Currency
	fmt.Fprintf(w, "Closed trades:     %d (%d wins, %d losses)\n", s.TotalTrades, s.Wins, s.Losses)
	fmt.Fprintf(w, "Net P&L:           %s\n", formatMoney(s.NetPnL, cur))
	fmt.Fprintf(w, "Win rate:          %.1f%%\n", s.WinRate)
	fmt.Fprintf(w, "Profit factor:     %s\n", formatRatio(s.ProfitFactor))
	fmt.Fprintf(w, "Avg win / loss:    %s / %s (%s)\n", formatMoney(s.AverageWin, cur), formatMoney(s.AverageLoss, cur), formatRatio(s.WinLossRatio))
	fmt.Fprintf(w, "Expectancy:        %s\n", formatMoney(s.Expectancy, cur))
	fmt.Fprintf(w, "Streaks:           %d wins, %d losses\n", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)

	if len(s.TopWinners) > 0 {
		fmt.Fprintln(w, "\nBest trades:")
		for _, r := range s.TopWinners {
			fmt.Fprintf(w, "  %s  %-8s %s\n", r.Trade.ExitDate.Format("02-01-2006"), r.Trade.Asset, formatMoney(r.NetPnL, cur))
		}
	}
	if len(s.TopLosers) > 0 {
		fmt.Fprintln(w, "\nWorst trades:")
		for _, r := range s.TopLosers {
			fmt.Fprintf(w, "  %s  %-8s %s\n", r.Trade.ExitDate.Format("02-01-2006"), r.Trade.Asset, formatMoney(r.NetPnL, cur))
		}
	}

	fmt.Fprintln(w, "\nMonthly P&L:")
	for _, m := range s.Monthly {
		fmt.Fprintf(w, "  %s  %s\n", m.Month.Format("Jan 2006"), formatMoney(m.PnL, cur))
	}

	if c.daily {
		days := make([]string, 0, len(s.DailyPnL))
		for d := range s.DailyPnL {
			days = append(days, d)
		}
		sort.Strings(days)
		fmt.Fprintln(w, "\nDaily P&L:")
		for _, d := range days {
			fmt.Fprintf(w, "  %s  %s\n", d, formatMoney(s.DailyPnL[d], cur))
		}
	}
}

func formatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", r)
}
