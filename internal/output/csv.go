package output

import (
	"fmt"
	"io"
	"strings"
)

// csvWriter prints a header line and one semicolon-separated line per row.
// NULL cells print as empty fields.
type csvWriter struct {
	w io.Writer
}

// NewCSV returns a Writer producing semicolon-separated lines.
func NewCSV(w io.Writer) Writer {
	return &csvWriter{w: w}
}

func (c *csvWriter) Header(cols []Column) error {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	_, err := fmt.Fprintln(c.w, strings.Join(names, ";"))
	return err
}

func (c *csvWriter) Row(cells []Cell) error {
	fields := make([]string, len(cells))
	for i, cell := range cells {
		if !cell.Null {
			fields[i] = cell.Text
		}
	}
	_, err := fmt.Fprintln(c.w, strings.Join(fields, ";"))
	return err
}

func (c *csvWriter) Flush() error { return nil }
