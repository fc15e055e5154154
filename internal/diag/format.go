package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	infoLabel    = color.New(color.FgCyan, color.Bold)
)

// FormatShort renders diagnostics one line per entry, suitable for CLI
// output. When width > 0 messages are truncated to fit narrow terminals.
// The input order is preserved; callers sort if they need determinism
// across files.
func FormatShort(diags []Diagnostic, width int, colorize bool) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatLine(d, width, colorize))
	}
	return b.String()
}

func formatLine(d Diagnostic, width int, colorize bool) string {
	label := severityLabel(d.Severity)
	if colorize {
		label = severityColor(d.Severity).Sprint(label)
	}
	msg := sanitizeMessage(d.Message)
	var line string
	if d.Location != nil {
		pos := d.Location.Range.Start
		line = fmt.Sprintf("%s %s:%d:%d %s", label, d.Location.Path, pos.Line, pos.Col, msg)
	} else {
		line = fmt.Sprintf("%s %s", label, msg)
	}
	if width > 0 && runewidth.StringWidth(line) > width {
		line = runewidth.Truncate(line, width, "…")
	}
	return line
}

func severityColor(sev Severity) *color.Color {
	switch sev {
	case SevError:
		return errorLabel
	case SevWarning:
		return warningLabel
	default:
		return infoLabel
	}
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
