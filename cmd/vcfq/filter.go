package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jorgeholguin/VCF-functions/internal/output"
)

func newFilterCmd() *cobra.Command {
	var (
		inputFormat  string
		outputFile   string
		transcripts  []string
		consequence  string
		variantClass string
		passOnly     bool
		noExtend     bool
	)

	cmd := &cobra.Command{
		Use:   "filter <input-file>",
		Short: "Filter variant rows by transcript, consequence, or class",
		Long: `Filter the rows of a VCF or MAF file. Transcript filtering matches the
per-transcript annotation blocks (VEP CSQ for VCF, all_effects for MAF)
and the Transcript_ID column; a versioned identifier must match exactly,
an unversioned one matches any version of the transcript. By default the
matching block's subfields are appended as extra columns; --no-extend
keeps the original columns only. Combining --consequence with
--variant-class keeps a row only when a single annotation block satisfies
both, and extension picks among those blocks. Zero matches print just the
header.`,
		Example: `  vcfq filter -t ENST00000256078 input.vcf
  vcfq filter -t ENST00000269305.9 -t ENST00000275493 --no-extend input.vcf
  vcfq filter --pass-only --consequence missense_variant input.vcf
  vcfq filter --variant-class DEL cohort.maf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(transcripts) == 0 {
				transcripts = viper.GetStringSlice("filter.transcripts")
			}
			if len(transcripts) == 0 && consequence == "" && variantClass == "" && !passOnly {
				return fmt.Errorf("no filter specified (use -t, --consequence, --variant-class, or --pass-only)")
			}
			if !cmd.Flags().Changed("no-extend") {
				noExtend = !viper.GetBool("filter.extend")
			}

			in, err := readInput(args[0], inputFormat)
			if err != nil {
				return err
			}

			tbl := in.Table
			if passOnly {
				tbl = tbl.FilterPass()
			}
			if consequence != "" || variantClass != "" {
				tbl = tbl.FilterConsequenceClass(consequence, variantClass)
			}

			if len(transcripts) > 0 {
				if noExtend || len(tbl.AnnotationKeys()) == 0 {
					tbl, err = tbl.FilterTranscripts(transcripts)
				} else {
					tbl, err = tbl.ExtendTranscripts(transcripts)
				}
				if err != nil {
					return err
				}
			}

			logger.Debug("filtered table",
				zap.String("path", args[0]),
				zap.Int("rows", tbl.NumRows()))

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			return output.WriteTable(out, tbl)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: vcf or maf (auto-detected if not specified)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringArrayVarP(&transcripts, "transcript", "t", nil, "Ensembl transcript identifier (repeatable)")
	cmd.Flags().StringVar(&consequence, "consequence", "", "keep rows with this consequence term")
	cmd.Flags().StringVar(&variantClass, "variant-class", "", "keep rows of this variant class")
	cmd.Flags().BoolVar(&passOnly, "pass-only", false, "keep only rows whose FILTER is PASS")
	cmd.Flags().BoolVar(&noExtend, "no-extend", false, "do not append annotation subfields as columns")

	return cmd
}
