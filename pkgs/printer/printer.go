// Package printer writes styled, user facing output. Log output goes through
// zerolog instead.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/vmboot/pkgs/styles"
)

type Printer struct {
	writer io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{writer: w}
}

// Ctx returns a printer bound to the writer stored in ctx, or p when the
// context carries none.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	if w, ok := GetWriter(ctx); ok {
		return New(w)
	}
	return p
}

// Writer exposes the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.writer
}

type KeyValue struct {
	Key   string
	Value string
}

func (p *Printer) FatalError(err error) {
	// multi line errors (template errors) already carry their own styling
	var ml interface{ Multiline() bool }
	if errors.As(err, &ml) && ml.Multiline() {
		p.println(err.Error())
		return
	}

	p.println(styles.ErrorBox("Error", err.Error()))
}

func (p *Printer) Title(title string) {
	p.println(styles.Accent(title))
}

func (p *Printer) List(title string, items []string) {
	if title != "" {
		p.Title(title)
	}

	for _, item := range items {
		p.println(fmt.Sprintf("  %s %s", styles.Subtle(styles.Dot), item))
	}
}

func (p *Printer) KeyValues(title string, kvs []KeyValue) {
	if title != "" {
		p.Title(title)
	}

	width := 0
	for _, kv := range kvs {
		width = max(width, len(kv.Key))
	}

	for _, kv := range kvs {
		value := kv.Value
		if value == "" {
			value = styles.Subtle("(blank)")
		}
		p.println(fmt.Sprintf("  %s  %s", styles.Bold(kv.Key+strings.Repeat(" ", width-len(kv.Key))), value))
	}
}

func (p *Printer) LineBreak() {
	p.println("")
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.writer, s)
}
