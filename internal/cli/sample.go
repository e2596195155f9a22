package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"tradlyst/internal/csvimport"
)

type sampleCmd struct {
	env    *Env
	output string
}

func (*sampleCmd) Name() string     { return "sample" }
func (*sampleCmd) Synopsis() string { return "write a sample trades CSV" }
func (*sampleCmd) Usage() string {
	return `tradlyst sample [-o <file>]

  Writes a three-trade example covering a closed trade, an open position and a
  partial exit. Use "-o -" to print it instead.
`
}

func (c *sampleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", csvimport.SampleFileName, "Destination file, or - for standard output.")
}

func (c *sampleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.output == "-" {
		if err := csvimport.WriteSample(c.env.out()); err != nil {
			fmt.Fprintf(c.env.errOut(), "Error writing sample: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if err := csvimport.WriteSampleFile(c.output); err != nil {
		fmt.Fprintf(c.env.errOut(), "Error writing sample: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(c.env.out(), "Sample CSV written to %s\n", c.output)
	return subcommands.ExitSuccess
}
