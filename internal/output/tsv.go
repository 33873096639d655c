// Package output provides table output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jorgeholguin/VCF-functions/internal/table"
)

// TableWriter writes tables in tab-delimited format. Records are written as
// their raw cells, so a parse-then-write round trip reproduces the source
// data lines byte for byte.
type TableWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTableWriter creates a tab-delimited writer for tables of the given
// schema.
func NewTableWriter(w io.Writer, schema *table.Schema) *TableWriter {
	return &TableWriter{
		w:       bufio.NewWriter(w),
		columns: schema.Columns(),
	}
}

// WriteHeader writes the column header line.
func (tw *TableWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRecord writes a single record.
func (tw *TableWriter) WriteRecord(r *table.Record) error {
	if len(r.Cells) != len(tw.columns) {
		return fmt.Errorf("record has %d cells, want %d", len(r.Cells), len(tw.columns))
	}
	_, err := tw.w.WriteString(strings.Join(r.Cells, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TableWriter) Flush() error {
	return tw.w.Flush()
}

// WriteTable writes a whole table, header included, to w.
func WriteTable(w io.Writer, t *table.Table) error {
	tw := NewTableWriter(w, t.Schema())
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range t.Rows() {
		if err := tw.WriteRecord(r); err != nil {
			return err
		}
	}
	return tw.Flush()
}
