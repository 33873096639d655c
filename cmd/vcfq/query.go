package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jorgeholguin/VCF-functions/internal/duckdb"
	"github.com/jorgeholguin/VCF-functions/internal/output"
)

const defaultQuery = "SELECT source_file, count(*) AS variants " +
	"FROM variants GROUP BY source_file ORDER BY source_file"

func newQueryCmd() *cobra.Command {
	var (
		inputFormat string
		outputFile  string
		queryStr    string
		jobs        int
		dbPath      string
	)

	cmd := &cobra.Command{
		Use:   "query <input-file>...",
		Short: "Load variant files into DuckDB and run SQL against them",
		Long: `Load one or more VCF or MAF files into a DuckDB table named variants,
one row per record and annotation block, and run a SQL query against it.
Each row carries its source file, case UUID, and tumor sample so results
from different files stay distinguishable. The database is in-memory
unless --db names a file. Files are parsed concurrently; --jobs bounds
the parallelism.`,
		Example: `  vcfq query -e "SELECT hugo_symbol, count(*) AS n FROM variants GROUP BY 1 ORDER BY n DESC" a.vcf b.vcf
  vcfq query -e "SELECT * FROM variants WHERE transcript_id LIKE 'ENST00000256078.%'" input.vcf
  vcfq query --jobs 8 cohort1.vcf.gz cohort2.maf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("jobs") {
				if v := viper.GetInt("query.jobs"); v > 0 {
					jobs = v
				}
			}
			if jobs < 1 {
				jobs = 1
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			store.SetLogger(logger)

			inputs := make([]*input, len(args))
			g := new(errgroup.Group)
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					in, err := readInput(path, inputFormat)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					inputs[i] = in
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			var total int64
			for _, in := range inputs {
				n, err := store.LoadTable(in.Table, in.Identity)
				if err != nil {
					return fmt.Errorf("load %s: %w", in.Table.Source(), err)
				}
				total += n
			}
			logger.Debug("loaded variants",
				zap.Int64("rows", total),
				zap.Int("files", len(args)))

			result, err := store.Query(queryStr)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(outputFile)
			if err != nil {
				return err
			}
			defer closeOut()

			return output.WriteTable(out, result)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: vcf or maf (auto-detected if not specified)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&queryStr, "exec", "e", defaultQuery, "SQL to run against the variants table")
	cmd.Flags().IntVar(&jobs, "jobs", 4, "max files parsed concurrently")
	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database file (default: in-memory)")

	return cmd
}
