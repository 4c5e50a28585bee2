package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const (
	maxTableRows = 10000
	maxColWidth  = 50
)

// tableWriter buffers rows and renders an aligned ASCII table on Flush.
// Buffers up to maxTableRows rows; beyond that, rows are dropped and a
// warning goes to stderr.
type tableWriter struct {
	w      io.Writer
	errOut io.Writer
	cols   []Column
	rows   [][]Cell

	maxRows   int
	truncated bool
}

// NewTable returns a Writer producing an aligned table.
func NewTable(w io.Writer) Writer {
	return &tableWriter{w: w, errOut: os.Stderr, maxRows: maxTableRows}
}

func (t *tableWriter) Header(cols []Column) error {
	t.cols = cols
	return nil
}

func (t *tableWriter) Row(cells []Cell) error {
	if len(t.rows) >= t.maxRows {
		t.truncated = true
		return nil
	}
	row := make([]Cell, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

func (t *tableWriter) Flush() error {
	if t.truncated {
		_, _ = fmt.Fprintf(t.errOut, "warning: result truncated at %d rows\n", t.maxRows)
	}
	if len(t.cols) == 0 {
		return nil
	}

	widths := t.computeWidths()
	if err := t.printHeader(widths); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.printRow(widths, row); err != nil {
			return err
		}
	}
	return nil
}

func (t *tableWriter) computeWidths() []int {
	widths := make([]int, len(t.cols))
	for i, col := range t.cols {
		widths[i] = utf8.RuneCountInString(col.Name)
	}
	for _, row := range t.rows {
		for i := range t.cols {
			if n := utf8.RuneCountInString(cellText(row, i)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColWidth {
			widths[i] = maxColWidth
		}
	}
	return widths
}

// cellText returns the display text of column i in row, empty for NULL
// cells and rows narrower than the schema.
func cellText(row []Cell, i int) string {
	if i >= len(row) || row[i].Null {
		return ""
	}
	return row[i].Text
}

func (t *tableWriter) printHeader(widths []int) error {
	parts := make([]string, len(t.cols))
	for i, col := range t.cols {
		parts[i] = padRight(col.Name, widths[i])
	}
	if _, err := fmt.Fprintln(t.w, strings.Join(parts, " | ")); err != nil {
		return err
	}
	seps := make([]string, len(widths))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	_, err := fmt.Fprintln(t.w, strings.Join(seps, "-+-"))
	return err
}

func (t *tableWriter) printRow(widths []int, row []Cell) error {
	parts := make([]string, len(t.cols))
	for i := range t.cols {
		v := cellText(row, i)
		if runes := []rune(v); widths[i] > 0 && len(runes) > widths[i] {
			v = string(runes[:widths[i]-1]) + "~"
		}
		parts[i] = padRight(v, widths[i])
	}
	_, err := fmt.Fprintln(t.w, strings.Join(parts, " | "))
	return err
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
