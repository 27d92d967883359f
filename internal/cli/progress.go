package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressReporter wraps a progressbar.ProgressBar, suppressed entirely
// in quiet mode. Bulk chunking and index builds report through this so
// long-running embedding calls give visible feedback.
type progressReporter struct {
	quiet     bool
	bar       *progressbar.ProgressBar
	startTime time.Time
}

func newProgressReporter(quiet bool) *progressReporter {
	return &progressReporter{quiet: quiet, startTime: time.Now()}
}

func (p *progressReporter) start(total int, description string) {
	if p.quiet {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (p *progressReporter) step() {
	if p.quiet || p.bar == nil {
		return
	}
	p.bar.Add(1)
}

func (p *progressReporter) done(message string) {
	if p.quiet {
		return
	}
	if p.bar != nil {
		p.bar.Finish()
	}
	fmt.Println(message)
}

func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
