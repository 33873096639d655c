package table

import "fmt"

// Schema describes the named columns of a table.
type Schema struct {
	columns []string
	index   map[string]int
	annKeys []string
}

// NewSchema creates a schema from an ordered list of column names.
// Column names are expected to be unique; both supported formats guarantee
// this for well-formed input.
func NewSchema(columns []string) *Schema {
	s := &Schema{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		s.index[c] = i
	}
	return s
}

// SetAnnotationKeys declares the subfield keys of the per-transcript
// annotation blocks carried by records of this schema (the CSQ Format keys
// for VCF, the all_effects keys for MAF).
func (s *Schema) SetAnnotationKeys(keys []string) {
	s.annKeys = keys
}

// Columns returns the ordered column names.
func (s *Schema) Columns() []string {
	return s.columns
}

// AnnotationKeys returns the annotation block keys, nil when the source
// carries no per-transcript annotations.
func (s *Schema) AnnotationKeys() []string {
	return s.annKeys
}

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int {
	return len(s.columns)
}

// Index returns the position of a column by name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether the schema carries a column with the given name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Extend returns a new schema with extra columns appended. The annotation
// keys carry over unchanged.
func (s *Schema) Extend(extra []string) *Schema {
	cols := make([]string, 0, len(s.columns)+len(extra))
	cols = append(cols, s.columns...)
	cols = append(cols, extra...)
	ns := NewSchema(cols)
	ns.annKeys = s.annKeys
	return ns
}

// Table is the full set of records parsed from one source file, exposed as
// an ordered sequence of rows with named columns. Tables are never mutated
// in place: filtering and extension produce new tables.
type Table struct {
	schema *Schema
	rows   []*Record
	source string
}

// New creates an empty table with the given schema. Source identifies the
// file the records came from.
func New(schema *Schema, source string) *Table {
	return &Table{schema: schema, source: source}
}

// Append adds a record to the table. The record's cells must align with the
// schema.
func (t *Table) Append(r *Record) error {
	if len(r.Cells) != t.schema.NumColumns() {
		return fmt.Errorf("record has %d cells, schema has %d columns",
			len(r.Cells), t.schema.NumColumns())
	}
	t.rows = append(t.rows, r)
	return nil
}

// NumRows returns the number of records in the table.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Row returns the i-th record.
func (t *Table) Row(i int) *Record {
	return t.rows[i]
}

// Rows returns the records in file order.
func (t *Table) Rows() []*Record {
	return t.rows
}

// Schema returns the table's column schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return t.schema.Columns()
}

// AnnotationKeys returns the annotation block keys of the schema.
func (t *Table) AnnotationKeys() []string {
	return t.schema.AnnotationKeys()
}

// Source returns the path of the file the table was parsed from.
func (t *Table) Source() string {
	return t.source
}

// HasColumn reports whether the table carries a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.schema.Has(name)
}

// Cell returns the raw value of the named column for a record of this table.
func (t *Table) Cell(r *Record, column string) (string, bool) {
	i, ok := t.schema.Index(column)
	if !ok || i >= len(r.Cells) {
		return "", false
	}
	return r.Cells[i], true
}

// Filter returns a new table containing the records for which keep returns
// true. The new table shares the schema, the source, and the kept records
// with the receiver; no record is copied or modified.
func (t *Table) Filter(keep func(*Record) bool) *Table {
	nt := &Table{schema: t.schema, source: t.source}
	for _, r := range t.rows {
		if keep(r) {
			nt.rows = append(nt.rows, r)
		}
	}
	return nt
}

// RecordParser is the interface for parsers that read records one data line
// at a time. Both the VCF and MAF parsers implement this interface.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// ReadAll drains a parser into a new table. The first parse error aborts the
// read; no partial table is returned.
func ReadAll(p RecordParser, schema *Schema, source string) (*Table, error) {
	t := New(schema, source)
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return t, nil
		}
		if err := t.Append(r); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.LineNumber(), err)
		}
	}
}
