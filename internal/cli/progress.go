package cli

import (
	"context"
	"fmt"
	"io"
)

// consoleProgress prints "done/total" on a single, rewritten line.
type consoleProgress struct {
	w io.Writer
}

func (p *consoleProgress) ReportProgress(ctx context.Context, done, total int) {
	fmt.Fprintf(p.w, "\rImporting trades... %d/%d", done, total)
	if done == total {
		fmt.Fprintln(p.w)
	}
}
