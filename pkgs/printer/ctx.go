package printer

import (
	"context"
	"io"
)

type ctxkey string

const writerKey = ctxkey("printer.writer")

// WithWriter stores the writer printers created with Ctx should use.
func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	return context.WithValue(ctx, writerKey, writer)
}

// GetWriter returns the writer stored by WithWriter.
func GetWriter(ctx context.Context) (io.Writer, bool) {
	w, ok := ctx.Value(writerKey).(io.Writer)
	return w, ok
}
