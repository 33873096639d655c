package vcf

import (
	"strings"

	"github.com/jorgeholguin/VCF-functions/internal/table"
)

// CSQ subfield keys with dedicated record fields. Every key declared in the
// header is still kept in the annotation's Values map.
const (
	csqKeyFeature      = "Feature"
	csqKeySymbol       = "SYMBOL"
	csqKeyConsequence  = "Consequence"
	csqKeyVariantClass = "VARIANT_CLASS"
	csqKeyHGVSp        = "HGVSp"
)

// csqKeysFromDescription extracts the pipe-separated subfield keys from a
// VEP CSQ Description, e.g.
//
//	Consequence annotations from Ensembl VEP. Format: Allele|Consequence|...
//
// Returns nil when the description carries no Format clause.
func csqKeysFromDescription(desc string) []string {
	_, format, found := strings.Cut(desc, "Format: ")
	if !found || format == "" {
		return nil
	}
	return strings.Split(format, "|")
}

// parseCSQBlocks decodes a CSQ INFO value into one annotation per
// comma-separated transcript block. Blocks shorter than the declared key
// list are padded with empty values.
func parseCSQBlocks(value string, keys []string) []table.Annotation {
	blocks := strings.Split(value, ",")
	anns := make([]table.Annotation, 0, len(blocks))

	for _, block := range blocks {
		fields := strings.Split(block, "|")
		values := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(fields) {
				values[key] = fields[i]
			} else {
				values[key] = ""
			}
		}
		anns = append(anns, table.Annotation{
			TranscriptID: values[csqKeyFeature],
			Symbol:       values[csqKeySymbol],
			Consequence:  values[csqKeyConsequence],
			VariantClass: values[csqKeyVariantClass],
			HGVSp:        values[csqKeyHGVSp],
			Values:       values,
		})
	}

	return anns
}
