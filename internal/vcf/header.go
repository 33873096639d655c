package vcf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Metadata holds the identifiers extracted from the VCF header section.
// GDC-style files declare them in ##INDIVIDUAL and ##SAMPLE meta lines; when
// those are absent, sample columns literally named TUMOR or NORMAL on the
// #CHROM line are used instead. Every getter reports presence explicitly so
// an absent identifier is never confused with an empty one.
type Metadata struct {
	patientID  string
	hasPatient bool
	caseUUID   uuid.UUID
	hasCase    bool
	tumorID    string
	hasTumor   bool
	normalID   string
	hasNormal  bool
	samples    []string
}

// PatientID returns the patient name from the ##INDIVIDUAL meta line.
func (m *Metadata) PatientID() (string, bool) {
	return m.patientID, m.hasPatient
}

// CaseUUID returns the case identifier from the ##INDIVIDUAL meta line.
// Only well-formed UUIDs are reported.
func (m *Metadata) CaseUUID() (uuid.UUID, bool) {
	return m.caseUUID, m.hasCase
}

// TumorSampleID returns the tumor sample identifier.
func (m *Metadata) TumorSampleID() (string, bool) {
	return m.tumorID, m.hasTumor
}

// NormalSampleID returns the matched normal sample identifier.
func (m *Metadata) NormalSampleID() (string, bool) {
	return m.normalID, m.hasNormal
}

// Samples returns the sample column names from the #CHROM line, nil when
// the file carries no sample columns.
func (m *Metadata) Samples() []string {
	return m.samples
}

// setSamples records the sample columns and applies the TUMOR/NORMAL
// fallback for files without ##SAMPLE meta lines.
func (m *Metadata) setSamples(samples []string) {
	m.samples = samples
	for _, s := range samples {
		switch s {
		case "TUMOR":
			if !m.hasTumor {
				m.tumorID, m.hasTumor = s, true
			}
		case "NORMAL":
			if !m.hasNormal {
				m.normalID, m.hasNormal = s, true
			}
		}
	}
}

// scanMetaLine inspects a single ## meta line for identifiers and CSQ keys.
// Lines whose value is not a structured <...> body are ignored.
func (p *Parser) scanMetaLine(line string) error {
	rest := strings.TrimPrefix(line, "##")
	key, value, found := strings.Cut(rest, "=")
	if !found || !strings.HasPrefix(value, "<") {
		return nil
	}
	if !strings.HasSuffix(value, ">") {
		return &HeaderFormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("unterminated structured value in ##%s line", key),
		}
	}

	attrs, err := parseStructuredMeta(value[1 : len(value)-1])
	if err != nil {
		return &HeaderFormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("malformed ##%s line: %s", key, err),
		}
	}

	switch key {
	case "INDIVIDUAL":
		if name, ok := attrs["NAME"]; ok && name != "" {
			p.meta.patientID, p.meta.hasPatient = name, true
		}
		if id, ok := attrs["ID"]; ok {
			if u, err := uuid.Parse(id); err == nil {
				p.meta.caseUUID, p.meta.hasCase = u, true
			}
		}
	case "SAMPLE":
		name, ok := attrs["NAME"]
		if !ok || name == "" {
			return nil
		}
		switch attrs["ID"] {
		case "TUMOR":
			p.meta.tumorID, p.meta.hasTumor = name, true
		case "NORMAL":
			p.meta.normalID, p.meta.hasNormal = name, true
		}
	case "INFO":
		if attrs["ID"] == "CSQ" {
			p.csqKeys = csqKeysFromDescription(attrs["Description"])
		}
	}

	return nil
}

// parseStructuredMeta parses the key=value pairs of a structured meta line
// body such as ID=TUMOR,NAME=TCGA-...,ALIQUOT_ID=... . Commas and equals
// signs inside double-quoted values do not split pairs; surrounding quotes
// are stripped from the value.
func parseStructuredMeta(body string) (map[string]string, error) {
	attrs := make(map[string]string)
	start := 0
	inQuotes := false

	for i := 0; i <= len(body); i++ {
		if i < len(body) {
			switch body[i] {
			case '"':
				inQuotes = !inQuotes
				continue
			case ',':
				if inQuotes {
					continue
				}
			default:
				continue
			}
		}

		pair := body[start:i]
		start = i + 1
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		attrs[key] = value
	}

	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted value")
	}
	return attrs, nil
}
