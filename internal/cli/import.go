package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"tradlyst/internal/csvimport"
	"tradlyst/internal/domain"
	"tradlyst/internal/ports"
)

type importCmd struct {
	env   *Env
	file  string
	quiet bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import trades from a CSV file" }
func (*importCmd) Usage() string {
	return `tradlyst import -file <trades.csv> [-q]

  Validates every row of the file and, when all rows are valid, stores one
  trade per row. Run 'tradlyst sample' for a file showing the expected columns.

  Duplicate-file detection (IMPORT_DUPLICATE_WINDOW_SECONDS) is held in
  memory, so it only applies to repeated submissions within one process.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV file to import.")
	f.BoolVar(&c.quiet, "q", false, "Do not print row progress.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" && f.NArg() > 0 {
		c.file = f.Arg(0)
	}
	if c.file == "" || !strings.EqualFold(filepath.Ext(c.file), ".csv") {
		fmt.Fprintln(c.env.errOut(), "Please select a CSV file")
		return subcommands.ExitUsageError
	}

	svc, ok := c.env.open(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer svc.Close()

	var progress ports.ProgressReporter
	if !c.quiet {
		progress = &consoleProgress{w: c.env.out()}
	}

	outcome, err := svc.Importer.ImportFile(ctx, c.file, progress)
	if err != nil {
		reportImportError(c.env.errOut(), err)
		if outcome == nil {
			return subcommands.ExitFailure
		}
		reportOutcome(c.env.out(), c.env.errOut(), outcome)
		return subcommands.ExitFailure
	}
	return reportOutcome(c.env.out(), c.env.errOut(), outcome)
}

func reportImportError(w io.Writer, err error) {
	var failure *csvimport.ValidationFailure
	switch {
	case errors.As(err, &failure):
		fmt.Fprintln(w, "CSV validation failed:")
		for _, msg := range failure.Result.Messages() {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	case errors.Is(err, ports.ErrDuplicateSubmission):
		fmt.Fprintln(w, "This file was already processed")
	case errors.Is(err, ports.ErrImportInProgress):
		fmt.Fprintln(w, "CSV upload already in progress")
	default:
		fmt.Fprintf(w, "Failed to process CSV: %v\n", err)
	}
}

func reportOutcome(out, errOut io.Writer, o *domain.ImportOutcome) subcommands.ExitStatus {
	switch o.Status {
	case domain.StatusAllSucceeded:
		fmt.Fprintf(out, "Successfully uploaded %d trades\n", o.SuccessCount)
		return subcommands.ExitSuccess
	case domain.StatusPartialFailure:
		fmt.Fprintf(out, "%d trades uploaded successfully, %d failed\n", o.SuccessCount, o.FailureCount)
	case domain.StatusCanceled:
		fmt.Fprintf(errOut, "Import canceled after %d of %d rows: %d uploaded, %d failed\n",
			o.Attempted(), o.Total, o.SuccessCount, o.FailureCount)
	default:
		fmt.Fprintf(errOut, "All %d trades failed to upload\n", o.FailureCount)
	}
	for _, msg := range o.Errors {
		fmt.Fprintf(errOut, "  - %s\n", msg)
	}
	return subcommands.ExitFailure
}
