package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/jorgeholguin/VCF-functions/internal/table"
)

// FileIdentity carries the provenance columns attached to every loaded row,
// typically taken from the source file's header metadata.
type FileIdentity struct {
	CaseID      string
	TumorSample string
}

// LoadTable batch-inserts a parsed table into the variants table using the
// Appender API and records the source in the sources table. Returns the
// number of rows appended: one per record and annotation block, one per
// unannotated record.
func (s *Store) LoadTable(tbl *table.Table, id FileIdentity) (int64, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "variants")
		return err
	}); err != nil {
		return 0, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	var count int64
	for _, r := range tbl.Rows() {
		var qual any
		if r.HasQual {
			qual = r.Qual
		}
		alt := strings.Join(r.Alt, ",")

		if len(r.Annotations) == 0 {
			if err := appender.AppendRow(
				tbl.Source(), id.CaseID, id.TumorSample,
				r.Chrom, r.Pos, r.ID, r.Ref, alt, qual, r.Filter,
				"", "", "", "", "",
			); err != nil {
				return 0, fmt.Errorf("append variant: %w", err)
			}
			count++
			continue
		}

		for _, ann := range r.Annotations {
			if err := appender.AppendRow(
				tbl.Source(), id.CaseID, id.TumorSample,
				r.Chrom, r.Pos, r.ID, r.Ref, alt, qual, r.Filter,
				ann.Symbol, ann.TranscriptID, ann.Consequence, ann.VariantClass, ann.HGVSp,
			); err != nil {
				return 0, fmt.Errorf("append variant: %w", err)
			}
			count++
		}
	}

	if err := appender.Flush(); err != nil {
		return 0, fmt.Errorf("flush appender: %w", err)
	}

	if err := s.recordSource(tbl, id, count); err != nil {
		return 0, err
	}

	s.logger.Debug("loaded table",
		zap.String("source", tbl.Source()),
		zap.Int64("rows", count))

	return count, nil
}

// recordSource inserts a provenance row for a loaded table. File size and
// modification time are recorded when the source names a readable file.
func (s *Store) recordSource(tbl *table.Table, id FileIdentity, rows int64) error {
	var size any
	var modified any
	if fp, err := StatFile(tbl.Source()); err == nil {
		size = fp.Size
		modified = fp.ModTime
	}

	_, err := s.db.Exec(
		`INSERT INTO sources (source_file, case_id, tumor_sample, size_bytes, modified_at, row_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tbl.Source(), id.CaseID, id.TumorSample, size, modified, rows)
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// CountVariants returns the number of rows in the variants table.
func (s *Store) CountVariants() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT count(*) FROM variants").Scan(&n); err != nil {
		return 0, fmt.Errorf("count variants: %w", err)
	}
	return n, nil
}

// Clear removes all loaded variants and source records.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM variants"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM sources")
	return err
}

// Query runs an arbitrary SQL query and renders the result as a table, one
// cell per column with NULLs rendered as empty strings.
func (s *Store) Query(query string, args ...any) (*table.Table, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := table.New(table.NewSchema(cols), "")
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		cells := make([]string, len(cols))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		if err := result.Append(&table.Record{Cells: cells}); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// SearchBySymbol returns the loaded rows annotated for a gene symbol.
func (s *Store) SearchBySymbol(symbol string) (*table.Table, error) {
	return s.Query(
		`SELECT source_file, chrom, pos, ref, alt, transcript_id, consequence, hgvsp
		 FROM variants WHERE hugo_symbol = ? ORDER BY chrom, pos`, symbol)
}

// SearchByTranscript returns the loaded rows for an Ensembl transcript. An
// unversioned identifier matches any version, a versioned one matches
// exactly.
func (s *Store) SearchByTranscript(transcript string) (*table.Table, error) {
	if strings.Contains(transcript, ".") {
		return s.Query(
			`SELECT source_file, chrom, pos, ref, alt, transcript_id, consequence, hgvsp
			 FROM variants WHERE transcript_id = ? ORDER BY chrom, pos`, transcript)
	}
	return s.Query(
		`SELECT source_file, chrom, pos, ref, alt, transcript_id, consequence, hgvsp
		 FROM variants
		 WHERE transcript_id = ? OR transcript_id LIKE ? ORDER BY chrom, pos`,
		transcript, transcript+".%")
}

// FileFingerprint holds stat-based identity for a source file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// formatValue renders a scanned SQL value as a cell string.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
