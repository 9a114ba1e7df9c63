package printer

import (
	"bytes"
	"io"
)

// DeferredWriter buffers output until Flush so that styled output is not
// interleaved with interactive prompts.
type DeferredWriter struct {
	buff   bytes.Buffer
	writer io.Writer
}

func NewDeferredWriter(w io.Writer) *DeferredWriter {
	return &DeferredWriter{
		writer: w,
	}
}

func (dw *DeferredWriter) Write(p []byte) (int, error) {
	return dw.buff.Write(p)
}

func (dw *DeferredWriter) Flush() error {
	_, err := dw.buff.WriteTo(dw.writer)
	return err
}
