package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/pipeline"
)

var (
	noCache     bool
	linkTimeout time.Duration
)

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link <task> <input> <output>",
	Short: "Link a prisoner record graph to the WarSampo entities",
	Long: `Link reads prisoner records as N-Triples, resolves one kind of field and
writes the accepted links, with their sources, as N-Triples.

Tasks:
  camps             captivity locations, through the prisoners graph
  occupations       occupations, through the occupation ARPA service
  municipalities    municipalities of birth, domicile, residence, capture and death
  persons           prisoner records to canonical persons (trained matcher)
  ranks             military ranks, through the rank ARPA service
  media-magazine    Sotilaan Ääni magazine references
  person-documents  scanned person documents named <dir>/<id>_<name>.pdf

Example:
  powlink link ranks prisoners.nt ranks.nt --rank-arpa http://localhost:8080/arpa/ranks
  powlink link persons prisoners.nt persons.nt --training-links data/person_links.json
  powlink link person-documents prisoners.nt documents_links.nt --documents-output documents.nt`,
	Args: cobra.ExactArgs(3),
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)

	defaults := model.DefaultConfig()
	flags := linkCmd.Flags()

	// Endpoint flags
	flags.String("endpoint", defaults.Endpoints.SPARQL, "SPARQL endpoint of the knowledge graph")
	flags.String("arpa", defaults.Endpoints.Municipalities, "ARPA service for municipalities (default: the municipalities graph)")
	flags.String("pnr", defaults.Endpoints.PNR, "ARPA service of the place name registry")
	flags.String("occupation-arpa", defaults.Endpoints.Occupations, "ARPA service for occupations")
	flags.String("rank-arpa", defaults.Endpoints.Ranks, "ARPA service for ranks")

	// Input flags
	flags.String("training-links", defaults.Matcher.TrainingLinks, "known record to person links (JSON)")
	flags.String("media-index", defaults.Media.MagazineIndex, "Sotilaan Ääni issue index (CSV)")
	flags.String("tie-policy", defaults.Matcher.TiePolicy, "near-tie person matches: first, all or review")

	// Output flags
	flags.String("documents-output", defaults.Output.Documents, "output path of document resources (media tasks)")
	flags.String("diagnostics", defaults.Output.Diagnostics, "output path of the diagnostics CSV")
	flags.String("report", defaults.Output.Report, "output path of the JSON run report")
	flags.String("metrics-file", defaults.Output.MetricsFile, "output path of the prometheus textfile")

	flags.BoolVar(&noCache, "no-cache", false, "disable the lookup cache")
	flags.DurationVar(&linkTimeout, "timeout", 0, "overall run timeout (0 means none)")

	for key, flag := range map[string]string{
		"endpoints.sparql":         "endpoint",
		"endpoints.municipalities": "arpa",
		"endpoints.pnr":            "pnr",
		"endpoints.occupations":    "occupation-arpa",
		"endpoints.ranks":          "rank-arpa",
		"matcher.training_links":   "training-links",
		"matcher.tie_policy":       "tie-policy",
		"media.magazine_index":     "media-index",
		"output.documents":         "documents-output",
		"output.diagnostics":       "diagnostics",
		"output.report":            "report",
		"output.metrics_file":      "metrics-file",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runLink(cmd *cobra.Command, args []string) error {
	task, err := model.ParseTask(args[0])
	if err != nil {
		return err
	}
	in, out := args[1], args[2]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if linkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, linkTimeout)
		defer cancel()
	}

	res, err := pipeline.NewPipeline(cfg, logger).Run(ctx, task, in, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Wrote %d links: %s\n", res.Report.Links, out)
	if res.Documents != nil && cfg.Output.Documents != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %d document triples: %s\n", res.Documents.Len(), cfg.Output.Documents)
	}
	if cfg.Output.Diagnostics != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %d diagnostics: %s\n", res.Report.Diagnostics, cfg.Output.Diagnostics)
	}
	return nil
}
