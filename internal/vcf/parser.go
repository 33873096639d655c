// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/jorgeholguin/VCF-functions/internal/table"
)

// Mandatory columns of the #CHROM header line, in order.
var mandatoryColumns = []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Parser reads variant records from a VCF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	path       string
	lineNumber int

	headerLines []string
	schema      *table.Schema
	meta        *Metadata
	csqKeys     []string
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files; compression is
// detected from the gzip magic bytes, not the file name.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file, path: path, meta: &Metadata{}}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	// Seek back to beginning
	_, err = file.Seek(0, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	// Parse header
	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
		meta:   &Metadata{},
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads the header section: ## meta lines are scanned for
// sample metadata and CSQ keys, the #CHROM line yields the column schema.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			break
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.headerLines = append(p.headerLines, line)
			if err := p.scanMetaLine(line); err != nil {
				return err
			}
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.headerLines = append(p.headerLines, line)
			return p.buildSchema(line)
		}

		// Non-header line encountered without #CHROM
		return &HeaderFormatError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &HeaderFormatError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// buildSchema turns the #CHROM line into the column schema. The leading "#"
// is stripped so the first column is named CHROM.
func (p *Parser) buildSchema(line string) error {
	fields := strings.Split(line, "\t")
	if len(fields) < len(mandatoryColumns) {
		return &HeaderFormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d header columns, found %d", len(mandatoryColumns), len(fields)),
		}
	}
	for i, want := range mandatoryColumns {
		if fields[i] != want {
			return &HeaderFormatError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("header column %d is %q, want %q", i+1, fields[i], want),
			}
		}
	}
	if len(fields) > len(mandatoryColumns) && fields[8] != "FORMAT" {
		return &HeaderFormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("header column 9 is %q, want %q", fields[8], "FORMAT"),
		}
	}

	columns := make([]string, len(fields))
	copy(columns, fields)
	columns[0] = strings.TrimPrefix(columns[0], "#")

	p.schema = table.NewSchema(columns)
	p.schema.SetAnnotationKeys(p.csqKeys)

	// Columns after FORMAT (index 9+) are sample identifiers.
	if len(fields) > 9 {
		p.meta.setSamples(fields[9:])
	}

	return nil
}

// Next reads the next record from the VCF file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*table.Record, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read variant line: %w", err)
	}
	if line == "" {
		return nil, nil
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return p.Next() // Skip empty lines
	}

	return p.parseLine(line)
}

// parseLine parses a single VCF data line into a record.
func (p *Parser) parseLine(line string) (*table.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != p.schema.NumColumns() {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d columns, found %d", p.schema.NumColumns(), len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	var qual float64
	hasQual := fields[5] != "."
	if hasQual {
		qual, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid quality score: %s", fields[5]),
			}
		}
	}

	var alt []string
	if fields[4] != "." {
		alt = strings.Split(fields[4], ",")
	}

	r := &table.Record{
		Chrom:   fields[0],
		Pos:     pos,
		ID:      fields[2],
		Ref:     fields[3],
		Alt:     alt,
		Qual:    qual,
		HasQual: hasQual,
		Filter:  fields[6],
		Info:    parseInfo(fields[7]),
		Cells:   fields,
	}

	if len(p.csqKeys) > 0 {
		if csq, ok := r.Info["CSQ"]; ok && csq != "" {
			r.Annotations = parseCSQBlocks(csq, p.csqKeys)
		}
	}

	return r, nil
}

// parseInfo parses the INFO field into a map. Flag-type keys carry an empty
// value, so presence is tested with a map lookup rather than a value check.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		result[key] = value
	}

	return result
}

// ReadTable parses the remaining records into a table. The first malformed
// line aborts the read; no partial table is returned.
func (p *Parser) ReadTable() (*table.Table, error) {
	return table.ReadAll(p, p.schema, p.path)
}

// ReadTable parses a whole VCF file into a table.
func ReadTable(path string) (*table.Table, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ReadTable()
}

// ReadMetadata extracts the header metadata of a VCF file without reading
// its data lines.
func ReadMetadata(path string) (*Metadata, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Metadata(), nil
}

// Header returns the raw VCF header lines.
func (p *Parser) Header() []string {
	return p.headerLines
}

// Schema returns the column schema built from the #CHROM line.
func (p *Parser) Schema() *table.Schema {
	return p.schema
}

// Metadata returns the identifiers extracted from the header section.
func (p *Parser) Metadata() *Metadata {
	return p.meta
}

// CSQKeys returns the VEP CSQ subfield keys declared in the header, nil when
// the file carries no CSQ annotations.
func (p *Parser) CSQKeys() []string {
	return p.csqKeys
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// HeaderFormatError represents a malformed or missing mandatory VCF header.
type HeaderFormatError struct {
	Line    int
	Message string
}

func (e *HeaderFormatError) Error() string {
	return fmt.Sprintf("vcf header error at line %d: %s", e.Line, e.Message)
}
