// Package render formats sources, rankings and digests for the terminal and
// as markdown files.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes user-facing output. Colors follow fatih/color's terminal
// detection and NO_COLOR unless overridden with WithColor.
type Printer struct {
	out   io.Writer
	color bool
}

func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, color: !color.NoColor}
}

// WithColor forces colors on or off.
func (p *Printer) WithColor(on bool) *Printer {
	p.color = on
	return p
}

func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Linef writes a plain formatted line.
func (p *Printer) Linef(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Heading writes a bold line.
func (p *Printer) Heading(format string, args ...any) {
	p.paint(color.Bold).Fprintf(p.out, format+"\n", args...)
}

// Info writes a cyan line.
func (p *Printer) Info(format string, args ...any) {
	p.paint(color.FgCyan).Fprintf(p.out, format+"\n", args...)
}

// Success writes a green line.
func (p *Printer) Success(format string, args ...any) {
	p.paint(color.FgGreen).Fprintf(p.out, format+"\n", args...)
}

// Warn writes a yellow "Warn" prefixed line.
func (p *Printer) Warn(format string, args ...any) {
	p.paint(color.FgYellow).Fprint(p.out, "Warn ")
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Failure writes a red line.
func (p *Printer) Failure(format string, args ...any) {
	p.paint(color.FgRed).Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) bold(s string) string {
	return p.paint(color.Bold).Sprint(s)
}
