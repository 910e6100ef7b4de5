// Package pipeline runs one linking task over a record graph and renders the
// link graph, the documents graph, the diagnostics and the run report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/assemble"
	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/cache"
	"github.com/ppiankov/powlink/internal/fetch"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/link"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/lookup"
	"github.com/ppiankov/powlink/internal/match"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/score"
	"github.com/ppiankov/powlink/internal/sparql"
	"github.com/ppiankov/powlink/internal/vocab"
	"github.com/ppiankov/powlink/internal/worker"
)

// Pipeline orchestrates a linking run
type Pipeline struct {
	config     *model.Config
	logger     *zap.Logger
	fetcher    *fetch.Fetcher
	store      cache.Cache // nil when caching is disabled
	classifier *lookup.PriorityClassifier
	scorer     *score.Scorer
	renderer   *Renderer
	now        func() time.Time
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.Burst)
	fetcher := fetch.NewFetcher(fetch.Options{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBodyBytes,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		Attempts:   cfg.Retry.Attempts,
		Backoff:    cfg.Retry.Backoff,
	}, limiter, logger)

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		config:     cfg,
		logger:     logger,
		fetcher:    fetcher,
		store:      store,
		classifier: lookup.NewPriorityClassifier(&cfg.Vocabulary),
		scorer:     score.NewScorer(cfg.Linking),
		renderer:   NewRenderer(logger),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Result contains everything a task produced
type Result struct {
	Links       *model.LinkSet
	Graph       *graph.Graph // Assembled links with provenance
	Documents   *graph.Graph // Document resources, nil unless the task creates them
	Diagnostics *audit.Diagnostics
	Counters    *audit.Counters
	Report      *model.Report
}

// run carries the per-run collaborators through a task
type run struct {
	diagnostics *audit.Diagnostics
	counters    *audit.Counters
	logger      *zap.Logger
}

func (r *run) recorder(pass string) *audit.Recorder {
	return audit.NewRecorder(pass, r.diagnostics, r.counters, r.logger)
}

// taskOutput is what a single task hands back for assembly
type taskOutput struct {
	links     *model.LinkSet
	documents *graph.Graph
	passes    []model.PassStats
	matcher   *model.MatchStats
}

// Run reads the records at in, runs task and writes the link graph to out
// along with the configured side outputs
func (p *Pipeline) Run(ctx context.Context, task model.Task, in, out string) (*Result, error) {
	records, err := readGraph(in)
	if err != nil {
		return nil, err
	}

	res, err := p.Link(ctx, task, records)
	if err != nil {
		return nil, err
	}
	res.Report.Input = in
	res.Report.Output = out

	if err := p.renderer.Render(res, out, p.config.Output); err != nil {
		return nil, err
	}
	return res, nil
}

// Link runs task over records. Row-level problems end up in the result's
// diagnostics; the error is reserved for failures that stop the run.
func (p *Pipeline) Link(ctx context.Context, task model.Task, records *graph.Graph) (*Result, error) {
	runID := audit.NewRunID()
	r := &run{
		diagnostics: audit.NewDiagnostics(),
		counters:    audit.NewCounters(runID, string(task)),
		logger:      p.logger.With(zap.String(logging.FieldRunID, runID), zap.String(logging.FieldTask, string(task))),
	}

	report := &model.Report{
		RunID:     runID,
		Task:      string(task),
		StartedAt: p.now(),
	}
	r.logger.Info("starting task", zap.Int("triples", records.Len()))

	var (
		output taskOutput
		err    error
	)
	switch task {
	case model.TaskCamps:
		output, err = p.camps(ctx, records, r)
	case model.TaskOccupations:
		output, err = p.occupations(ctx, records, r)
	case model.TaskMunicipalities:
		output, err = p.municipalities(ctx, records, r)
	case model.TaskPersons:
		output, err = p.persons(ctx, records, r)
	case model.TaskRanks:
		output, err = p.ranks(ctx, records, r)
	case model.TaskMediaMagazine:
		output, err = p.magazine(records, r)
	case model.TaskPersonDocuments:
		output, err = p.personDocuments(r)
	default:
		return nil, fmt.Errorf("unknown task %q (want one of %s)", task, model.TaskNames())
	}
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", task, err)
	}

	links := output.links
	if links == nil {
		links = model.NewLinkSet()
	}

	report.Links = links.Len()
	report.Passes = output.passes
	report.Matcher = output.matcher
	report.Diagnostics = r.diagnostics.Len()
	if output.documents != nil {
		report.Documents = output.documents.Len()
	}
	report.FinishedAt = p.now()
	report.Assessment = p.scorer.Calculate(report)

	r.logger.Info("task finished",
		zap.Int("links", report.Links),
		zap.Int("diagnostics", report.Diagnostics),
		zap.Int("index", report.Assessment.Index),
		zap.String("confidence", report.Assessment.Confidence))

	return &Result{
		Links:       links,
		Graph:       assemble.Assemble(links),
		Documents:   output.documents,
		Diagnostics: r.diagnostics,
		Counters:    r.counters,
		Report:      report,
	}, nil
}

// chain wraps a backend the way every field task sees it: remapped names,
// optionally cached candidates, then vocabulary priority ordering
func (p *Pipeline) chain(name string, backend lookup.Lookup, entity string, cached bool, logger *zap.Logger) lookup.Lookup {
	l := backend
	if cached && p.store != nil {
		l = lookup.NewCached(l, p.store, name, 0, logger)
	}
	l = lookup.NewRemapped(l, link.RemapTable(&p.config.Linking, entity), logger)
	return lookup.NewPrioritized(l, p.classifier)
}

func (p *Pipeline) arpa(name, endpoint, entity string, logger *zap.Logger) (lookup.Lookup, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("no %s endpoint configured", name)
	}
	return p.chain(name, lookup.NewArpaClient(name, endpoint, p.fetcher, logger), entity, true, logger), nil
}

func (p *Pipeline) linkFields(ctx context.Context, records *graph.Graph, r *run, tasks ...link.FieldTask) (taskOutput, error) {
	linker := link.NewLinker(r.diagnostics, r.counters, r.logger)
	if p.store != nil {
		linker.SetPrefetch(p.config.Linking.PrefetchWorkers)
	}
	links, passes, err := linker.LinkFields(ctx, records, tasks...)
	if err != nil {
		return taskOutput{}, err
	}
	return taskOutput{links: links, passes: passes}, nil
}

func (p *Pipeline) camps(ctx context.Context, records *graph.Graph, r *run) (taskOutput, error) {
	client := sparql.NewClient(p.config.Endpoints.SPARQL, p.fetcher)
	values, err := lookup.NewSparqlValuesLookup(client, p.config.Linking.CampQuery, r.logger)
	if err != nil {
		return taskOutput{}, err
	}
	l := p.chain("camps", values, model.EntityCamp, true, r.logger)
	return p.linkFields(ctx, records, r, link.Camps(l))
}

func (p *Pipeline) ranks(ctx context.Context, records *graph.Graph, r *run) (taskOutput, error) {
	l, err := p.arpa("ranks", p.config.Endpoints.Ranks, model.EntityRank, r.logger)
	if err != nil {
		return taskOutput{}, err
	}
	return p.linkFields(ctx, records, r, link.Ranks(l, p.config.Linking.RankMinScore))
}

func (p *Pipeline) occupations(ctx context.Context, records *graph.Graph, r *run) (taskOutput, error) {
	l, err := p.arpa("occupations", p.config.Endpoints.Occupations, model.EntityOccupation, r.logger)
	if err != nil {
		return taskOutput{}, err
	}
	task := link.Occupations(l, p.config.Linking.OccupationMinScore, p.config.Linking.LowercaseOccupation)
	return p.linkFields(ctx, records, r, task)
}

// municipalities resolves four fields against the wartime municipalities and
// the place of death against the place name registry. The municipalities
// come from an ARPA service when one is configured and from the named graph
// otherwise.
func (p *Pipeline) municipalities(ctx context.Context, records *graph.Graph, r *run) (taskOutput, error) {
	var dictionary lookup.Lookup
	if endpoint := p.config.Endpoints.Municipalities; endpoint != "" {
		l, err := p.arpa("municipalities", endpoint, model.EntityMunicipality, r.logger)
		if err != nil {
			return taskOutput{}, err
		}
		dictionary = l
	} else {
		client := sparql.NewClient(p.config.Endpoints.SPARQL, p.fetcher)
		g, err := client.ReadGraph(ctx, vocab.GraphMunicipalities)
		if err != nil {
			return taskOutput{}, err
		}
		d := lookup.NewDictionaryLookup(g, vocab.Municipality, p.config.Linking.MunicipalityMinSim, r.logger)
		r.logger.Info("municipality dictionary loaded", zap.Int("labels", d.Len()))
		dictionary = p.chain("municipalities", d, model.EntityMunicipality, false, r.logger)
	}

	pnr, err := p.arpa("pnr", p.config.Endpoints.PNR, model.EntityMunicipality, r.logger)
	if err != nil {
		return taskOutput{}, err
	}

	return p.linkFields(ctx, records, r, link.Municipalities(dictionary, pnr, p.config.Linking.DeathPlaceTypes)...)
}

func (p *Pipeline) persons(ctx context.Context, records *graph.Graph, r *run) (taskOutput, error) {
	cfg := p.config.Matcher
	client := sparql.NewClient(p.config.Endpoints.SPARQL, p.fetcher)

	rankGraph, err := client.ReadGraph(ctx, vocab.GraphRanks)
	if err != nil {
		return taskOutput{}, err
	}
	levels := match.RankLevels(rankGraph)

	canonical, err := match.NewSparqlPersonSource(client, cfg.PersonQuery).Persons(ctx)
	if err != nil {
		return taskOutput{}, err
	}
	known := make(map[string]bool, len(canonical))
	for _, person := range canonical {
		known[person.ID] = true
	}

	persons, redacted := match.PrisonerRecords(records)
	r.logger.Info("persons read",
		zap.Int("records", len(persons)),
		zap.Int("redacted", len(redacted)),
		zap.Int("canonical", len(canonical)),
		zap.Int("rank_levels", len(levels)))

	training, err := match.LoadTrainingLinks(cfg.TrainingLinks)
	if err != nil {
		return taskOutput{}, err
	}
	pruned := match.PruneTraining(training, records, known, r.logger)

	matcher, err := match.NewMatcher(cfg, nil, r.recorder(string(model.TaskPersons)), r.logger)
	if err != nil {
		return taskOutput{}, err
	}
	links, err := matcher.Run(
		match.ProjectAll(persons, levels, r.logger),
		match.ProjectAll(canonical, levels, r.logger),
		pruned.Kept)
	if err != nil {
		return taskOutput{}, err
	}

	stats := matcher.Stats()
	stats.Excluded = len(redacted)
	stats.DroppedTraining += pruned.Dropped()
	return taskOutput{
		links:   links,
		passes:  []model.PassStats{matcher.PassStats()},
		matcher: &stats,
	}, nil
}

func (p *Pipeline) magazine(records *graph.Graph, r *run) (taskOutput, error) {
	idx, err := assemble.LoadMagazineIndex(p.config.Media.MagazineIndex, p.config.Media.MagazineThumbBase)
	if err != nil {
		return taskOutput{}, err
	}
	rec := r.recorder(string(model.TaskMediaMagazine))
	links := assemble.LinkMagazine(records, idx, rec, r.logger)
	return taskOutput{
		links:     links,
		documents: idx.Documents(),
		passes:    []model.PassStats{rec.Stats()},
	}, nil
}

func (p *Pipeline) personDocuments(r *run) (taskOutput, error) {
	rec := r.recorder(string(model.TaskPersonDocuments))
	links, documents, err := assemble.NewPersonDocuments(p.config.Media, r.logger).Run(rec)
	if err != nil {
		return taskOutput{}, err
	}
	return taskOutput{
		links:     links,
		documents: documents,
		passes:    []model.PassStats{rec.Stats()},
	}, nil
}

func readGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	g, err := graph.ParseNTriples(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
