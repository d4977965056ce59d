package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lumen/internal/diag"
	"lumen/internal/source"
)

// Pretty renders diagnostics in a human-readable form. It walks
// bag.Items() in order (callers are expected to bag.Sort() first). Every
// diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline when ShowPreview is
// set, then notes in the same shape when ShowNotes is set.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... and %d more diagnostics\n", dropped)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) diagnostic(d diag.Diagnostic) {
	p.header(d.Severity, d.Code, d.Primary, d.Message, "")
	if p.opts.ShowPreview {
		p.preview(d.Primary)
	}
	if p.opts.ShowNotes {
		for _, note := range d.Notes {
			p.header(diag.SevInfo, 0, note.Span, note.Msg, "note")
			if p.opts.ShowPreview && !note.Span.Empty() {
				p.preview(note.Span)
			}
		}
	}
}

func (p *prettyPrinter) header(sev diag.Severity, code diag.Code, span source.Span, msg, label string) {
	start, _ := p.fs.Resolve(span)
	path := displayPath(p.fs, span.File, p.opts.PathMode)

	sevText := sev.String()
	if label != "" {
		sevText = label
	}
	if p.opts.Color {
		sevText = severityColor(sev).Sprint(sevText)
	}

	if code != diag.UnknownCode {
		fmt.Fprintf(p.w, "%s:%d:%d: %s %s: %s\n", path, start.Line, start.Col, sevText, code, msg)
		return
	}
	fmt.Fprintf(p.w, "%s:%d:%d: %s: %s\n", path, start.Line, start.Col, sevText, msg)
}

// preview prints the first line the span touches with a caret underline.
func (p *prettyPrinter) preview(span source.Span) {
	file := p.fs.Get(span.File)
	start, end := p.fs.Resolve(span)
	line := file.GetLine(start.Line)
	if line == "" && start.Line != 1 {
		return
	}

	gutter := fmt.Sprintf("%5d | ", start.Line)
	fmt.Fprintf(p.w, "%s%s\n", gutter, line)

	// Align the caret under the span using display width, so wide runes
	// in the prefix do not skew the underline.
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	pad := runewidth.StringWidth(line[:col])

	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		hi := int(end.Col) - 1
		if hi > len(line) {
			hi = len(line)
		}
		length = runewidth.StringWidth(line[col:hi])
		if length < 1 {
			length = 1
		}
	}

	marker := "^" + strings.Repeat("~", length-1)
	if p.opts.Color {
		marker = color.New(color.FgGreen, color.Bold).Sprint(marker)
	}
	fmt.Fprintf(p.w, "%s%s%s\n", strings.Repeat(" ", len(gutter)-2)+"| ", strings.Repeat(" ", pad), marker)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f.IsVirtual() {
		// Virtual names (tests, stdin) are not real paths; print as-is.
		return f.Path
	}
	switch mode {
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeRelative, PathModeAuto:
		if rel, err := filepath.Rel(fs.BaseDir(), f.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return f.Path
	default:
		return f.Path
	}
}
