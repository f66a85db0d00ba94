package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/aleixmp/jobpace/internal/progress"
)

// ProgressRenderer renders engine updates as a single in-place terminal line.
// It satisfies progress.Notifier.
type ProgressRenderer struct {
	writer  io.Writer
	noColor bool
	// lastLen is the width of the previous line, used to blank leftovers when a
	// shorter line replaces a longer one.
	lastLen int
}

// NewProgressRenderer creates a renderer writing in-place progress lines to w.
func NewProgressRenderer(w io.Writer, noColor bool) *ProgressRenderer {
	return &ProgressRenderer{writer: w, noColor: noColor}
}

// Notify renders one engine update. Terminal updates end the line with a
// newline so following output starts fresh.
func (p *ProgressRenderer) Notify(u progress.Update) {
	if u.Done {
		p.render(p.finalLine(u))
		fmt.Fprintln(p.writer)
		return
	}

	if u.FailReason != "" {
		p.render(p.failLine(u))
		fmt.Fprintln(p.writer)
		return
	}

	p.render(p.progressLine(u))
}

func (p *ProgressRenderer) progressLine(u progress.Update) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%3.0f%%] %s", u.Percent, u.StageLabel)
	if u.SubStep != "" {
		fmt.Fprintf(&b, " (%s)", u.SubStep)
	}
	fmt.Fprintf(&b, " | %s elapsed | %s", FormatDuration(u.Elapsed), FormatRemaining(u.Remaining))

	return b.String()
}

func (p *ProgressRenderer) finalLine(u progress.Update) string {
	line := fmt.Sprintf("[100%%] Done in %s", FormatDuration(u.Elapsed))
	if u.Result != nil && u.Result.Message != "" {
		line += " | " + u.Result.Message
	}
	if p.noColor {
		return line
	}
	return "\033[32m" + line + "\033[0m"
}

func (p *ProgressRenderer) failLine(u progress.Update) string {
	line := fmt.Sprintf("Failed after %s: %s", FormatDuration(u.Elapsed), u.FailReason)
	if p.noColor {
		return line
	}
	return "\033[31m" + line + "\033[0m"
}

// render replaces the current terminal line with s.
func (p *ProgressRenderer) render(s string) {
	pad := ""
	if n := p.lastLen - len(s); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(p.writer, "\r%s%s", s, pad)
	p.lastLen = len(s)
}
