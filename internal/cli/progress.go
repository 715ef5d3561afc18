package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// progressReporter draws a one-line spinner on stderr while catalogs are extracted.
// It stays silent when stderr is not a terminal or JSON output was requested.
type progressReporter struct {
	out     io.Writer
	enabled bool
	label   string
	total   int
	start   time.Time
	spinner int
	lastLen int
}

func newProgressReporter(label string, total int, asJSON bool) *progressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON && total > 1
	return &progressReporter{
		out:     os.Stderr,
		enabled: enabled,
		label:   label,
		total:   total,
		start:   time.Now(),
	}
}

func (r *progressReporter) Update(item string, count int) {
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	item = strings.TrimSpace(item)
	if len(item) > 88 {
		item = "..." + item[len(item)-85:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d/%d %s", frame, r.label, count, r.total, item))
}

func (r *progressReporter) Done(count int) {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d catalogs in %s)", r.label, count, elapsed))
	fmt.Fprintln(r.out)
}

func (r *progressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
