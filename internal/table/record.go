// Package table provides the in-memory tabular representation produced by
// the VCF and MAF parsers.
package table

// Record is a single data line from a VCF or MAF file.
// Records are never modified after parsing; derived tables share them.
type Record struct {
	Chrom   string            // Chromosome name (e.g., "12", "chr12")
	Pos     int64             // 1-based genomic position
	ID      string            // Variant identifier (e.g., rs ID), "." if none
	Ref     string            // Reference allele
	Alt     []string          // Alternate alleles in file order, nil when "."
	Qual    float64           // Quality score, meaningful only when HasQual
	HasQual bool              // False when the file marks the score missing
	Filter  string            // Filter status (PASS or filter names)
	Info    map[string]string // INFO key-value pairs; flag keys map to ""

	// Annotations holds the per-transcript annotation blocks attached to
	// this record: VEP CSQ blocks for VCF input, all_effects entries for
	// MAF input. Empty when the source carries neither.
	Annotations []Annotation

	// Cells holds the raw value of every column, aligned with the table
	// schema. Nothing is normalized here; this is the lossless view of
	// the source line.
	Cells []string
}

// Annotation is one transcript-level annotation block attached to a record.
type Annotation struct {
	TranscriptID string            // Ensembl transcript (CSQ Feature / all_effects Transcript_ID)
	Symbol       string            // Gene symbol
	Consequence  string            // SO consequence term(s)
	VariantClass string            // VEP VARIANT_CLASS or MAF Variant_Type
	HGVSp        string            // Protein change, when the source carries one
	Values       map[string]string // Every subfield, keyed per Table.AnnotationKeys
}

// IsSNV returns true if the record is a single nucleotide variant.
func (r *Record) IsSNV() bool {
	return len(r.Ref) == 1 && len(r.Alt) == 1 && len(r.Alt[0]) == 1
}

// IsIndel returns true if the record is an insertion or deletion.
func (r *Record) IsIndel() bool {
	if len(r.Alt) != 1 {
		return false
	}
	return len(r.Ref) != len(r.Alt[0])
}

// IsInsertion returns true if the record is an insertion.
func (r *Record) IsInsertion() bool {
	return len(r.Alt) == 1 && len(r.Alt[0]) > len(r.Ref)
}

// IsDeletion returns true if the record is a deletion.
func (r *Record) IsDeletion() bool {
	return len(r.Alt) == 1 && len(r.Ref) > len(r.Alt[0])
}

// VariantClass derives a MAF-style variant class (SNP, DNP, TNP, ONP, INS,
// DEL) from the allele shapes. Multi-allelic records are classified by their
// first alternate allele. Used as the fallback when neither an annotation
// block nor a Variant_Type column provides a class.
func (r *Record) VariantClass() string {
	if len(r.Alt) == 0 {
		return ""
	}
	alt := r.Alt[0]
	switch {
	case len(r.Ref) == len(alt):
		switch len(r.Ref) {
		case 1:
			return "SNP"
		case 2:
			return "DNP"
		case 3:
			return "TNP"
		default:
			return "ONP"
		}
	case len(alt) > len(r.Ref):
		return "INS"
	default:
		return "DEL"
	}
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (r *Record) NormalizeChrom() string {
	if len(r.Chrom) > 3 && r.Chrom[:3] == "chr" {
		return r.Chrom[3:]
	}
	return r.Chrom
}

// withCells returns a shallow copy of the record carrying the given cells.
// Extension uses this so the source record stays untouched.
func (r *Record) withCells(cells []string) *Record {
	nr := *r
	nr.Cells = cells
	return &nr
}

// withAnnotations returns a shallow copy of the record carrying the given
// annotation blocks. Pruning uses this so the source record stays untouched.
func (r *Record) withAnnotations(anns []Annotation) *Record {
	nr := *r
	nr.Annotations = anns
	return &nr
}
