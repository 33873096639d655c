package table

import "strings"

// ColumnTranscriptID is the conventional MAF column naming the transcript a
// row was annotated against. VCF tables carry transcripts in their CSQ
// annotation blocks instead.
const ColumnTranscriptID = "Transcript_ID"

// ColumnVariantType is the MAF column naming the variant class of a row.
const ColumnVariantType = "Variant_Type"

// ColumnConsequence is the MAF column naming the consequence of a row.
const ColumnConsequence = "Consequence"

// PassFilter is the FILTER value of calls that passed all filters.
const PassFilter = "PASS"

// StripVersion removes the version suffix from an Ensembl identifier,
// e.g. "ENST00000456328.2" -> "ENST00000456328".
func StripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// MatchTranscript reports whether a transcript identifier found in a table
// matches the queried identifier. A versioned query (ENST00000311936.8) must
// match exactly, version included; an unversioned query matches any version
// of the same transcript, tolerating annotation-version drift between files.
func MatchTranscript(query, candidate string) bool {
	if query == "" || candidate == "" {
		return false
	}
	if strings.Contains(query, ".") {
		return query == candidate
	}
	return StripVersion(candidate) == query
}

// FilterTranscript returns a new table containing only the rows annotated
// against the given Ensembl transcript identifier (version handling per
// MatchTranscript). A row matches when any of its annotation blocks names
// the transcript, or when its Transcript_ID cell does. Zero matches yield an
// empty table with the same schema, not an error; a table with neither
// annotation blocks nor a Transcript_ID column yields a ColumnMissingError.
func (t *Table) FilterTranscript(id string) (*Table, error) {
	return t.FilterTranscripts([]string{id})
}

// FilterTranscripts is FilterTranscript for a set of identifiers: a row is
// kept when it matches any of them.
func (t *Table) FilterTranscripts(ids []string) (*Table, error) {
	col, hasCol := t.schema.Index(ColumnTranscriptID)
	if !hasCol && len(t.schema.annKeys) == 0 {
		return nil, &ColumnMissingError{Column: ColumnTranscriptID}
	}
	return t.Filter(func(r *Record) bool {
		if _, ok := lastMatch(r, ids); ok {
			return true
		}
		if !hasCol || col >= len(r.Cells) {
			return false
		}
		for _, id := range ids {
			if MatchTranscript(id, r.Cells[col]) {
				return true
			}
		}
		return false
	}), nil
}

// FilterConsequence returns a new table containing only the rows with the
// given consequence term (e.g. "missense_variant"). Matching is by
// containment, so a term matches compound consequences such as
// "missense_variant&splice_region_variant". Rows without annotation blocks
// fall back to the Consequence column when the table has one.
func (t *Table) FilterConsequence(term string) *Table {
	return t.FilterConsequenceClass(term, "")
}

// FilterVariantClass returns a new table containing only the rows of the
// given variant class (e.g. "SNP"). Annotation blocks are consulted first,
// then the Variant_Type column, then the class derived from the allele
// shapes. MAF annotation blocks carry no variant class, so MAF tables are
// decided by their Variant_Type column.
func (t *Table) FilterVariantClass(class string) *Table {
	return t.FilterConsequenceClass("", class)
}

// FilterConsequenceClass returns a new table containing only the rows with
// at least one annotation block satisfying both constraints: the block's
// Consequence contains the term AND the block's variant class matches. An
// empty term or class leaves that axis unconstrained. Kept rows carry only
// their satisfying blocks, so a later ExtendTranscripts picks among those;
// the receiver and its records are left untouched.
//
// A block carrying no class of its own (MAF all_effects blocks) is decided
// by the row's Variant_Type column, then by the class derived from the
// allele shapes. Rows without annotation blocks fall back to the
// Consequence and Variant_Type columns the same way.
func (t *Table) FilterConsequenceClass(term, class string) *Table {
	conCol, hasConCol := t.schema.Index(ColumnConsequence)
	typeCol, hasTypeCol := t.schema.Index(ColumnVariantType)

	nt := &Table{schema: t.schema, source: t.source}
	for _, r := range t.rows {
		if len(r.Annotations) == 0 {
			if term != "" {
				if !hasConCol || conCol >= len(r.Cells) || !strings.Contains(r.Cells[conCol], term) {
					continue
				}
			}
			if class != "" && !matchRowClass(r, class, typeCol, hasTypeCol) {
				continue
			}
			nt.rows = append(nt.rows, r)
			continue
		}

		var kept []Annotation
		for _, ann := range r.Annotations {
			if term != "" && !strings.Contains(ann.Consequence, term) {
				continue
			}
			if class != "" && !matchBlockClass(r, ann, class, typeCol, hasTypeCol) {
				continue
			}
			kept = append(kept, ann)
		}
		if len(kept) == 0 {
			continue
		}
		if len(kept) == len(r.Annotations) {
			nt.rows = append(nt.rows, r)
			continue
		}
		nt.rows = append(nt.rows, r.withAnnotations(kept))
	}
	return nt
}

// matchBlockClass reports whether one annotation block is of the given
// variant class. Blocks without a class defer to the row.
func matchBlockClass(r *Record, ann Annotation, class string, typeCol int, hasTypeCol bool) bool {
	if ann.VariantClass != "" {
		return strings.Contains(ann.VariantClass, class)
	}
	return matchRowClass(r, class, typeCol, hasTypeCol)
}

// matchRowClass reports whether a row is of the given variant class, by its
// Variant_Type cell when the table has that column and by the allele shapes
// otherwise.
func matchRowClass(r *Record, class string, typeCol int, hasTypeCol bool) bool {
	if hasTypeCol && typeCol < len(r.Cells) {
		return r.Cells[typeCol] == class
	}
	return strings.EqualFold(r.VariantClass(), class)
}

// FilterPass returns a new table containing only the rows whose filter
// status is PASS.
func (t *Table) FilterPass() *Table {
	return t.Filter(func(r *Record) bool {
		return r.Filter == PassFilter
	})
}

// ExtendTranscripts returns a new table in which every row has a matching
// annotation block for one of the given transcript identifiers, with that
// block's subfields appended as named columns. Rows without a match are
// dropped. When several blocks match, the last one wins (file order). The
// receiver and its records are left untouched. A table without annotation
// blocks yields a ColumnMissingError.
func (t *Table) ExtendTranscripts(ids []string) (*Table, error) {
	annKeys := t.schema.AnnotationKeys()
	if len(annKeys) == 0 {
		return nil, &ColumnMissingError{Column: ColumnTranscriptID}
	}

	nt := New(t.schema.Extend(annKeys), t.source)
	for _, r := range t.rows {
		ann, ok := lastMatch(r, ids)
		if !ok {
			continue
		}
		cells := make([]string, 0, len(r.Cells)+len(annKeys))
		cells = append(cells, r.Cells...)
		for _, k := range annKeys {
			cells = append(cells, ann.Values[k])
		}
		if err := nt.Append(r.withCells(cells)); err != nil {
			return nil, err
		}
	}
	return nt, nil
}

// lastMatch returns the last annotation block of the record naming one of
// the given transcripts.
func lastMatch(r *Record, ids []string) (Annotation, bool) {
	var match Annotation
	var found bool
	for _, ann := range r.Annotations {
		for _, id := range ids {
			if MatchTranscript(id, ann.TranscriptID) {
				match = ann
				found = true
			}
		}
	}
	return match, found
}
