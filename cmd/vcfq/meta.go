package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jorgeholguin/VCF-functions/internal/vcf"
)

// metaReport is the YAML rendering of a VCF header's identifiers. Absent
// identifiers render as null, never as empty strings.
type metaReport struct {
	Source       string   `yaml:"source"`
	PatientID    *string  `yaml:"patient_id"`
	CaseUUID     *string  `yaml:"case_uuid"`
	TumorSample  *string  `yaml:"tumor_sample_id"`
	NormalSample *string  `yaml:"normal_sample_id"`
	Samples      []string `yaml:"samples"`
}

func newMetaCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "meta <input-file>",
		Short: "Show the patient and sample identifiers of a VCF header",
		Long: `Extract the GDC-style identifiers declared in a VCF header: the
##INDIVIDUAL patient name and case UUID, and the ##SAMPLE tumor and
normal sample names. Files without ##SAMPLE lines fall back to sample
columns literally named TUMOR or NORMAL.`,
		Example: `  vcfq meta input.vcf
  vcfq meta tumor.vcf.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := vcf.ReadMetadata(args[0])
			if err != nil {
				return err
			}

			report := metaReport{Source: args[0], Samples: meta.Samples()}
			if v, ok := meta.PatientID(); ok {
				report.PatientID = &v
			}
			if u, ok := meta.CaseUUID(); ok {
				s := u.String()
				report.CaseUUID = &s
			}
			if v, ok := meta.TumorSampleID(); ok {
				report.TumorSample = &v
			}
			if v, ok := meta.NormalSampleID(); ok {
				report.NormalSample = &v
			}

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			enc, err := yaml.Marshal(report)
			if err != nil {
				return fmt.Errorf("marshaling metadata: %w", err)
			}
			_, err = out.Write(enc)
			return err
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}
