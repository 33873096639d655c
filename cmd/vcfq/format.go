package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorgeholguin/VCF-functions/internal/duckdb"
	"github.com/jorgeholguin/VCF-functions/internal/maf"
	"github.com/jorgeholguin/VCF-functions/internal/table"
	"github.com/jorgeholguin/VCF-functions/internal/vcf"
)

// input holds a parsed file and the provenance extracted from it.
type input struct {
	Table    *table.Table
	Format   string
	Identity duckdb.FileIdentity
}

// readInput parses a VCF or MAF file into a table. format may be empty, in
// which case it is detected from the file name or content.
func readInput(path, format string) (*input, error) {
	if format == "" {
		format = detectInputFormat(path)
	}

	switch format {
	case "vcf":
		p, err := vcf.NewParser(path)
		if err != nil {
			return nil, err
		}
		defer p.Close()

		tbl, err := p.ReadTable()
		if err != nil {
			return nil, err
		}

		var id duckdb.FileIdentity
		meta := p.Metadata()
		if u, ok := meta.CaseUUID(); ok {
			id.CaseID = u.String()
		}
		if s, ok := meta.TumorSampleID(); ok {
			id.TumorSample = s
		}
		return &input{Table: tbl, Format: format, Identity: id}, nil

	case "maf":
		tbl, err := maf.ReadTable(path)
		if err != nil {
			return nil, err
		}
		id := duckdb.FileIdentity{TumorSample: firstCell(tbl, "Tumor_Sample_Barcode")}
		return &input{Table: tbl, Format: format, Identity: id}, nil

	default:
		return nil, fmt.Errorf("unknown input format %q (use --input-format to specify vcf or maf)", format)
	}
}

// firstCell returns the named cell of the first row, empty when the table
// has no rows or no such column.
func firstCell(tbl *table.Table, column string) string {
	if tbl.NumRows() == 0 {
		return ""
	}
	v, _ := tbl.Cell(tbl.Row(0), column)
	return v
}

// openOutput opens the output destination, stdout when path is empty.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// detectInputFormat detects the input file format based on extension or content.
func detectInputFormat(path string) string {
	// Check by extension
	lowerPath := strings.ToLower(path)

	// Handle gzipped files
	if strings.HasSuffix(lowerPath, ".gz") {
		lowerPath = lowerPath[:len(lowerPath)-3]
	}

	if strings.HasSuffix(lowerPath, ".vcf") {
		return "vcf"
	}
	if strings.HasSuffix(lowerPath, ".maf") {
		return "maf"
	}

	// Check for cBioPortal MAF filenames
	baseName := filepath.Base(lowerPath)
	if baseName == "data_mutations.txt" || baseName == "data_mutations_extended.txt" {
		return "maf"
	}

	// For stdin, default to VCF
	if path == "-" {
		return "vcf"
	}

	// Try to peek at the file to detect format
	file, err := os.Open(path)
	if err != nil {
		return "vcf" // Default to VCF
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil || n == 0 {
		return "vcf"
	}

	content := string(buf[:n])

	// Check for VCF header
	if strings.HasPrefix(content, "##fileformat=VCF") || strings.HasPrefix(content, "#CHROM") {
		return "vcf"
	}

	// Check for MAF header columns
	if strings.Contains(content, "Hugo_Symbol") && strings.Contains(content, "Chromosome") {
		return "maf"
	}

	// Default to VCF
	return "vcf"
}
