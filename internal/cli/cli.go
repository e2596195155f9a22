package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

// Importer runs a CSV import for a file on disk.
type Importer interface {
	ImportFile(ctx context.Context, path string, progress ports.ProgressReporter) (*domain.ImportOutcome, error)
}

// TradeLister returns a user's journaled trades, newest entry first.
type TradeLister interface {
	Trades(ctx context.Context, userID string) ([]*domain.Trade, error)
}

// Services are the wired dependencies a command needs once the store is open.
type Services struct {
	Importer Importer
	Trades   TradeLister
	UserID   string // Owner used for listing, anonymous when nobody is signed in
	Close    func()
}

// Env is shared by every command. Setup is only called by commands that
// need the trade store, so `sample` works without a database.
type Env struct {
	Setup    func(ctx context.Context) (*Services, error)
	Currency string
	Out      io.Writer
	Err      io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) errOut() io.Writer {
	if e.Err == nil {
		return os.Stderr
	}
	return e.Err
}

// open runs Setup and reports a failure on the error stream.
func (e *Env) open(ctx context.Context) (*Services, bool) {
	svc, err := e.Setup(ctx)
	if err != nil {
		fmt.Fprintf(e.errOut(), "Error initializing trade store: %v\n", err)
		return nil, false
	}
	return svc, true
}

// Commands lists every subcommand bound to env.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&importCmd{env: env},
		&sampleCmd{env: env},
		&tradesCmd{env: env},
		&statsCmd{env: env},
	}
}

// formatMoney renders a major-unit amount in the given ISO currency.
// Unknown currencies fall back to a plain two-decimal number.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

func formatPrice(v float64, currency string) string {
	return formatMoney(decimal.NewFromFloat(v), currency)
}
