package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jorgeholguin/VCF-functions/internal/output"
)

func newParseCmd() *cobra.Command {
	var (
		inputFormat string
		outputFile  string
	)

	cmd := &cobra.Command{
		Use:   "parse <input-file>",
		Short: "Parse a variant file and print it as a table",
		Long: `Parse a VCF or MAF file into a table and print it tab-delimited, header
included. Gzipped input is detected automatically. Use '-' to read from
stdin.`,
		Example: `  vcfq parse input.vcf
  vcfq parse --input-format maf data_mutations.txt
  vcfq parse -o variants.tsv input.vcf.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0], inputFormat)
			if err != nil {
				return err
			}
			logger.Debug("parsed input",
				zap.String("path", args[0]),
				zap.String("format", in.Format),
				zap.Int("rows", in.Table.NumRows()))

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			return output.WriteTable(out, in.Table)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: vcf or maf (auto-detected if not specified)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")

	return cmd
}
