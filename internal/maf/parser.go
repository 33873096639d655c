// Package maf provides MAF (Mutation Annotation Format) file parsing functionality.
package maf

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

// Standard MAF column names
const (
	ColChromosome      = "Chromosome"
	ColStartPosition   = "Start_Position"
	ColEndPosition     = "End_Position"
	ColReferenceAllele = "Reference_Allele"
	ColTumorSeqAllele2 = "Tumor_Seq_Allele2"
	ColHugoSymbol      = "Hugo_Symbol"
	ColConsequence     = "Consequence"
	ColHGVSpShort      = "HGVSp_Short"
	ColTranscriptID    = "Transcript_ID"
	ColVariantType     = "Variant_Type"
	ColNCBIBuild       = "NCBI_Build"
	ColAllEffects      = "all_effects"
)

// Columns required in every MAF header row.
var requiredColumns = []string{ColChromosome, ColStartPosition, ColReferenceAllele, ColTumorSeqAllele2}

// allEffectsFields is the fixed field order of one comma-separated block in
// the GDC all_effects column. The derived annotation keys carry an
// _all_effects suffix so they never collide with regular MAF columns.
var allEffectsFields = []string{
	"Symbol",
	"Consequence",
	"HGVSp_Short",
	"Transcript_ID",
	"RefSeq",
	"HGVSc",
	"Impact",
	"Canonical",
	"Sift",
	"PolyPhen",
	"Strand",
}

// Parser reads variant records from a MAF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	path       string
	lineNumber int

	version  string
	comments []string
	schema   *table.Schema

	chromIdx      int
	posIdx        int
	refIdx        int
	altIdx        int
	typeIdx       int
	allEffectsIdx int

	annKeys []string
}

// NewParser creates a new MAF parser for the given file.
// Supports both plain MAF and gzipped MAF (.maf.gz) files; compression is
// detected from the gzip magic bytes, not the file name.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open maf file: %w", err)
	}

	p := &Parser{file: file, path: path}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read maf header: %w", err)
	}

	// Seek back to beginning
	_, err = file.Seek(0, 0)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek maf file: %w", err)
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
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader skips leading # comments, capturing the #version pragma, and
// builds the column schema from the first non-comment line.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			return &HeaderFormatError{
				Line:    p.lineNumber,
				Message: "no header line found",
			}
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		// Comment lines precede the header row; #version carries the
		// MAF format version.
		if strings.HasPrefix(line, "#") {
			p.comments = append(p.comments, line)
			if v, found := strings.CutPrefix(line, "#version "); found {
				p.version = v
			}
			continue
		}

		if line == "" {
			continue
		}

		return p.buildSchema(line)
	}
}

// buildSchema validates the header row and caches the indices of the typed
// columns.
func (p *Parser) buildSchema(line string) error {
	columns := strings.Split(line, "\t")
	schema := table.NewSchema(columns)

	for _, col := range requiredColumns {
		if !schema.Has(col) {
			return &HeaderFormatError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column %q not found in header", col),
			}
		}
	}

	p.schema = schema
	p.chromIdx, _ = schema.Index(ColChromosome)
	p.posIdx, _ = schema.Index(ColStartPosition)
	p.refIdx, _ = schema.Index(ColReferenceAllele)
	p.altIdx, _ = schema.Index(ColTumorSeqAllele2)

	p.typeIdx = -1
	if i, ok := schema.Index(ColVariantType); ok {
		p.typeIdx = i
	}

	p.allEffectsIdx = -1
	if i, ok := schema.Index(ColAllEffects); ok {
		p.allEffectsIdx = i
		p.annKeys = make([]string, len(allEffectsFields))
		for j, f := range allEffectsFields {
			p.annKeys[j] = f + "_all_effects"
		}
		schema.SetAnnotationKeys(p.annKeys)
	}

	return nil
}

// Next reads the next record from the MAF file.
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

	// Skip comment lines
	if strings.HasPrefix(line, "#") {
		return p.Next()
	}

	return p.parseLine(line)
}

// parseLine parses a single MAF data line into a record. The typed fields
// normalize the "-" empty-allele convention; the raw cells keep it.
func (p *Parser) parseLine(line string) (*table.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != p.schema.NumColumns() {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d columns, found %d", p.schema.NumColumns(), len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.posIdx], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.posIdx]),
		}
	}

	ref := fields[p.refIdx]
	if ref == "-" {
		ref = ""
	}

	var alt []string
	if a := fields[p.altIdx]; a != "-" && a != "" {
		alt = []string{a}
	}

	r := &table.Record{
		Chrom:  fields[p.chromIdx],
		Pos:    pos,
		ID:     ".",
		Ref:    ref,
		Alt:    alt,
		Filter: ".",
		Info:   make(map[string]string),
		Cells:  fields,
	}

	if p.allEffectsIdx >= 0 {
		r.Annotations = p.parseAllEffects(fields[p.allEffectsIdx])
	}

	return r, nil
}

// parseAllEffects decodes the ;-separated transcript blocks of an
// all_effects cell. Blocks shorter than the fixed field list are padded
// with empty values.
func (p *Parser) parseAllEffects(cell string) []table.Annotation {
	if cell == "" {
		return nil
	}

	var anns []table.Annotation
	for _, block := range strings.Split(cell, ";") {
		if block == "" {
			continue
		}
		fields := strings.Split(block, ",")
		values := make(map[string]string, len(p.annKeys))
		for i, key := range p.annKeys {
			if i < len(fields) {
				values[key] = fields[i]
			} else {
				values[key] = ""
			}
		}
		anns = append(anns, table.Annotation{
			TranscriptID: values["Transcript_ID_all_effects"],
			Symbol:       values["Symbol_all_effects"],
			Consequence:  values["Consequence_all_effects"],
			HGVSp:        values["HGVSp_Short_all_effects"],
			Values:       values,
		})
	}

	return anns
}

// ReadTable parses the remaining records into a table. The first malformed
// line aborts the read; no partial table is returned.
func (p *Parser) ReadTable() (*table.Table, error) {
	return table.ReadAll(p, p.schema, p.path)
}

// ReadTable parses a whole MAF file into a table.
func ReadTable(path string) (*table.Table, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ReadTable()
}

// Version returns the value of the #version pragma, empty when absent.
func (p *Parser) Version() string {
	return p.version
}

// Comments returns the # comment lines preceding the header row.
func (p *Parser) Comments() []string {
	return p.comments
}

// Schema returns the column schema built from the header row.
func (p *Parser) Schema() *table.Schema {
	return p.schema
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

// ParseError represents an error during MAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("maf parse error at line %d: %s", e.Line, e.Message)
}

// HeaderFormatError represents a malformed or missing MAF header row.
type HeaderFormatError struct {
	Line    int
	Message string
}

func (e *HeaderFormatError) Error() string {
	return fmt.Sprintf("maf header error at line %d: %s", e.Line, e.Message)
}
