package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ripple/internal/source"
)

// RenderOpts controls human-readable diagnostic output.
type RenderOpts struct {
	Color   bool
	Context bool // include the source line with a caret underline
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
)

func severityLabel(sev Severity, colorize bool) string {
	if !colorize {
		return sev.String()
	}
	switch sev {
	case SevError:
		return errColor.Sprint(sev.String())
	case SevWarning:
		return warnColor.Sprint(sev.String())
	default:
		return infoColor.Sprint(sev.String())
	}
}

// Render prints each diagnostic as
//
//	path:line:col: SEV CODE: message
//
// followed by the offending source line with a caret underline and any notes.
// Callers should Sort the bag first.
func Render(w io.Writer, bag *Bag, fs *source.FileSet, opts RenderOpts) {
	for _, d := range bag.Items() {
		renderOne(w, d, fs, opts)
	}
}

func renderOne(w io.Writer, d Diagnostic, fs *source.FileSet, opts RenderOpts) {
	f := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)

	pos := fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
	if opts.Color {
		pos = posColor.Sprint(pos)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", pos, severityLabel(d.Severity, opts.Color), d.Code, d.Message)

	if opts.Context {
		renderContext(w, f, start, end, d.Primary)
	}
	for _, n := range d.Notes {
		nStart, _ := fs.Resolve(n.Span)
		nf := fs.Get(n.Span.File)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", nf.Path, nStart.Line, nStart.Col, n.Msg)
	}
}

func renderContext(w io.Writer, f *source.File, start, end source.LineCol, span source.Span) {
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	// Caret width follows the display width of the underlined text so the
	// underline stays aligned for wide runes and tabs.
	prefix := line
	if int(start.Col-1) <= len(line) {
		prefix = line[:start.Col-1]
	}
	pad := runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", "    "))

	width := 1
	if start.Line == end.Line && end.Col > start.Col {
		hi := int(end.Col - 1)
		if hi > len(line) {
			hi = len(line)
		}
		width = runewidth.StringWidth(line[start.Col-1 : hi])
		if width < 1 {
			width = 1
		}
	}
	fmt.Fprintf(w, "  %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", width-1))
}
