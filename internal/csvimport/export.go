package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tradlyst/internal/domain"
)

// SampleFileName is the suggested name for the downloadable sample file.
const SampleFileName = "tradlyst_sample_trades.csv"

// Columns lists every column the import format understands, in export order.
var Columns = []string{
	"symbol", "direction", "entry_date", "entry_time", "entry_quantity", "entry_price",
	"exit_date", "exit_time", "exit_price", "exit_quantity", "stop_loss", "target_price",
	"brokerage", "charges", "trading_style", "strategy_tag", "emotional_state", "outcome_summary", "notes",
}

var sampleRows = [][]string{
	// Closed trade, DD-MM-YYYY dates
	{"AAPL", "Long", "15-01-2024", "09:30", "100", "150.25", "15-01-2024", "15:45", "152.80", "100", "148.00", "155.00", "2.50", "1.25", "Scalping", "Price Action", "Confident", "Good trade - hit target", "Strong momentum breakout"},
	// Open position without times
	{"TSLA", "Short", "16-01-2024", "", "50", "245.30", "", "", "", "", "240.00", "250.00", "1.25", "0.75", "Day Trading", "Momentum", "Neutral", "", "Short on resistance level"},
	// Partial exit, YYYY-MM-DD dates
	{"MSFT", "Long", "2024-01-17", "11:00", "200", "380.50", "2024-01-17", "14:30", "385.20", "100", "375.00", "390.00", "5.00", "2.50", "Swing Trading", "Technical Analysis", "Confident", "Partial profit taken", "Strong earnings play"},
}

// WriteSample writes the illustrative three-trade sample file.
func WriteSample(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, r := range sampleRows {
		if err := writer.Write(r); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSampleFile writes the sample to filename.
func WriteSampleFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteSample(file)
}

// WriteTradesCSV exports trades in the import format so the file can be re-imported.
// Free text is flattened because the import grammar has no quoting.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}

	for _, t := range trades {
		err := writer.Write([]string{
			plain(t.Asset),
			string(t.Direction),
			formatDate(&t.EntryDate),
			t.EntryTime,
			formatFloat(t.Quantity),
			formatFloat(t.EntryPrice),
			formatDate(t.ExitDate),
			t.ExitTime,
			formatOptional(t.ExitPrice),
			formatOptional(t.ExitQuantity),
			formatOptional(t.StopLoss),
			formatOptional(t.Target),
			formatFloat(t.Brokerage),
			formatFloat(t.OtherFees),
			plain(t.TradingStyle),
			plain(t.Strategy),
			plain(t.EmotionalState),
			plain(t.OutcomeSummary),
			plain(t.Reasons),
		})
		if err != nil {
			return fmt.Errorf("failed to write trade %s: %w", t.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func plain(s string) string {
	return textFlattener.Replace(s)
}

var textFlattener = strings.NewReplacer(",", ";", `"`, "'", "\r", " ", "\n", " ")

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
