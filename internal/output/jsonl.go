package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// jsonlWriter prints one compact JSON object per row, keyed by column
// name in schema order. Cell text is emitted as JSON strings; NULL cells
// as JSON null. No type conversion is attempted.
type jsonlWriter struct {
	w    io.Writer
	cols []string
}

// NewJSONL returns a Writer producing newline-delimited JSON objects.
func NewJSONL(w io.Writer) Writer {
	return &jsonlWriter{w: w}
}

func (j *jsonlWriter) Header(cols []Column) error {
	j.cols = make([]string, len(cols))
	for i, col := range cols {
		j.cols[i] = col.Name
	}
	return nil
}

func (j *jsonlWriter) Row(cells []Cell) error {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(j.columnName(i))
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if cell.Null {
			buf.WriteString("null")
		} else {
			val, err := json.Marshal(cell.Text)
			if err != nil {
				return err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	_, err := fmt.Fprintln(j.w, buf.String())
	return err
}

// columnName returns the header name for cell index i, or a positional
// fallback when the row is wider than the announced schema.
func (j *jsonlWriter) columnName(i int) string {
	if i < len(j.cols) {
		return j.cols[i]
	}
	return fmt.Sprintf("col%d", i)
}

func (j *jsonlWriter) Flush() error { return nil }
