package printer

import (
	"context"
	"os"
)

// ConsolePrinter writes to stdout unless a context carries another writer.
var ConsolePrinter = New(os.Stdout)

func Ctx(ctx context.Context) *Printer {
	return ConsolePrinter.Ctx(ctx)
}
