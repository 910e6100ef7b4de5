package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/powlink/internal/convert"
	"github.com/ppiankov/powlink/internal/pipeline"
)

var (
	mappingFile  string
	schemaOutput string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <csv> <output>",
	Short: "Convert the prisoner register CSV into a record graph",
	Long: `Convert reads the prisoner register, one prisoner per row with the prisoner
number and "FAMILY Given" name in the first two columns, and writes prisoner
records as N-Triples. Values are split on their separators, source citations
in parentheses are kept as provenance and dates are normalized. Rows that
cannot be converted are listed in the diagnostics CSV.

Example:
  powlink convert prisoners.csv prisoners.nt --schema-output schema.nt
  powlink convert prisoners.csv prisoners.nt --mapping mapping.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&mappingFile, "mapping", "", "column mapping (YAML, default: built-in register mapping)")
	convertCmd.Flags().StringVar(&schemaOutput, "schema-output", "", "output path of the property schema")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	now := time.Now()
	mapping := convert.DefaultMapping(now)
	if mappingFile != "" {
		if mapping, err = convert.LoadMapping(mappingFile, now); err != nil {
			return err
		}
	}

	res, err := pipeline.NewPipeline(cfg, logger).Convert(args[0], args[1], schemaOutput, mapping)
	if err != nil {
		return err
	}

	stats := res.Report.Passes[0]
	fmt.Fprintf(os.Stderr, "✓ Wrote %d prisoner records: %s\n", stats.Accepted, args[1])
	if cfg.Output.Diagnostics != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %d diagnostics: %s\n", res.Report.Diagnostics, cfg.Output.Diagnostics)
	}
	return nil
}
