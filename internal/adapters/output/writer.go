// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// Writer writes machine-readable results, one value per line.
// By default, it writes to stdout; logs and build tool output go to stderr.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteLine writes the value without any prefix or formatting.
// Downstream tooling reads version strings and artifact paths this way.
func (w *Writer) WriteLine(value string) error {
	_, err := fmt.Fprintln(w.out, value)
	return err
}
