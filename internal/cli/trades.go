package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"tradlyst/internal/analytics"
	"tradlyst/internal/csvimport"
)

type tradesCmd struct {
	env   *Env
	asCSV bool
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list journaled trades" }
func (*tradesCmd) Usage() string {
	return `tradlyst trades [-csv]

  Lists the signed-in user's trades, newest entry first. With -csv the list is
  written in the import format so it can be edited and imported again.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asCSV, "csv", false, "Write trades as importable CSV.")
}

func (c *tradesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if c.asCSV {
		if err := csvimport.WriteTradesCSV(c.env.out(), trades); err != nil {
			fmt.Fprintf(c.env.errOut(), "Error writing trades: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if len(trades) == 0 {
		fmt.Fprintln(c.env.out(), "No trades yet. Import a CSV with 'tradlyst import -file <trades.csv>'.")
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(c.env.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY DATE\tSYMBOL\tSIDE\tQTY\tENTRY\tEXIT\tNET P&L")
	for _, t := range trades {
		exit, pnl := "open", "-"
		if t.IsClosed() {
			exit = formatPrice(*t.ExitPrice, c.env.Currency)
			pnl = formatMoney(analytics.NetPnL(t), c.env.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n",
			t.EntryDate.Format("02-01-2006"), t.Asset, t.Direction, t.Quantity,
			formatPrice(t.EntryPrice, c.env.Currency), exit, pnl)
	}
	tw.Flush()
	return subcommands.ExitSuccess
}
