package match

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
	"github.com/ppiankov/powlink/internal/vocab"
)

// ErrInvalidState is returned when a matcher step is called out of order
var ErrInvalidState = errors.New("invalid matcher state")

// State is a matcher lifecycle stage
type State int

const (
	StateUntrained State = iota
	StateBlocked
	StateTrained
	StateScored
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "UNTRAINED"
	case StateBlocked:
		return "BLOCKED_CANDIDATES"
	case StateTrained:
		return "TRAINED"
	case StateScored:
		return "SCORED"
	case StateResolved:
		return "RESOLVED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tie policies for near-equal best matches
const (
	TieFirst  = "first"  // Link the best match only
	TieAll    = "all"    // Link every match within the tie epsilon
	TieReview = "review" // Link nothing and flag the record for review
)

// Matcher links prisoner records to canonical persons. Steps run in order:
// Block, Train, Score, Resolve.
type Matcher struct {
	cfg        model.MatcherConfig
	classifier Classifier
	blocker    *Blocker
	recorder   *audit.Recorder
	logger     *zap.Logger
	at         time.Time

	state    State
	sources  []Features
	targets  []Features
	pairs    []Pair
	training []Pair
	scores   []float64
	stats    model.MatchStats
}

// NewMatcher creates a matcher. A nil classifier uses a logistic regression
// seeded from cfg.
func NewMatcher(cfg model.MatcherConfig, classifier Classifier, recorder *audit.Recorder, logger *zap.Logger) (*Matcher, error) {
	switch cfg.TiePolicy {
	case "":
		cfg.TiePolicy = TieFirst
	case TieFirst, TieAll, TieReview:
	default:
		return nil, fmt.Errorf("unknown tie policy %q", cfg.TiePolicy)
	}
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0, 1)", cfg.Threshold)
	}

	at := time.Now().UTC().Truncate(24 * time.Hour)
	if cfg.ComparisonDate != "" {
		r, err := normalize.ParseDate(cfg.ComparisonDate)
		if err != nil {
			return nil, fmt.Errorf("comparison date: %w", err)
		}
		at = r.End
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = NewLogisticRegression(cfg.Seed, cfg.Epochs, cfg.LearningRate, cfg.L2)
	}
	if recorder == nil {
		recorder = audit.NewRecorder("persons", nil, nil, logger)
	}

	return &Matcher{
		cfg:        cfg,
		classifier: classifier,
		blocker:    NewBlocker(cfg.BlockPrefix),
		recorder:   recorder,
		logger:     logger,
		at:         at,
		stats:      model.MatchStats{Threshold: cfg.Threshold},
	}, nil
}

// State returns the current lifecycle stage
func (m *Matcher) State() State {
	return m.state
}

// Stats returns the training and scoring statistics so far
func (m *Matcher) Stats() model.MatchStats {
	return m.stats
}

// TrainingPairs returns the (source, target) IDs of the positive examples
// the classifier was fitted with
func (m *Matcher) TrainingPairs() []TrainingLink {
	out := make([]TrainingLink, 0, len(m.training))
	for _, p := range m.training {
		out = append(out, TrainingLink{Record: m.sources[p.Source].ID, Person: m.targets[p.Target].ID})
	}
	return out
}

func (m *Matcher) expect(op string, want State) error {
	if m.state != want {
		return fmt.Errorf("%w: %s needs %s, matcher is %s", ErrInvalidState, op, want, m.state)
	}
	return nil
}

// Block stores the feature records and computes the candidate pairs
func (m *Matcher) Block(sources, targets []Features) error {
	if err := m.expect("block", StateUntrained); err != nil {
		return err
	}

	m.sources, m.targets = sources, targets
	m.pairs = m.blocker.Pairs(sources, targets)
	m.stats.Sources = len(sources)
	m.stats.Targets = len(targets)
	m.stats.CandidatePairs = len(m.pairs)

	m.logger.Info("blocked candidate pairs",
		zap.Int("sources", len(sources)),
		zap.Int("targets", len(targets)),
		zap.Int("pairs", len(m.pairs)))
	m.state = StateBlocked
	return nil
}

// Train fits the classifier on the training links and a seeded sample of
// blocked pairs assumed to be non-matches. Links whose record or person is
// not among the blocked feature records are dropped and counted.
func (m *Matcher) Train(links []TrainingLink) error {
	if err := m.expect("train", StateBlocked); err != nil {
		return err
	}

	sourceIdx := index(m.sources)
	targetIdx := index(m.targets)

	known := make(map[Pair]bool)
	m.training = m.training[:0]
	for _, l := range links {
		si, okS := sourceIdx[l.Record]
		ti, okT := targetIdx[l.Person]
		if !okS || !okT {
			m.logger.Warn("dropping training link", zap.String("record", l.Record), zap.String("person", l.Person))
			m.stats.DroppedTraining++
			continue
		}
		p := Pair{Source: si, Target: ti}
		if known[p] {
			continue
		}
		known[p] = true
		m.training = append(m.training, p)
	}
	if len(m.training) == 0 {
		return fmt.Errorf("%w: no usable training links", ErrNoTrainingData)
	}

	positives := m.training
	if m.cfg.TrainingSize > 0 && len(positives) > m.cfg.TrainingSize {
		positives = positives[:m.cfg.TrainingSize]
	}
	negatives := m.sampleNegatives(known, len(positives))

	vectors := make([]Vector, 0, len(positives)+len(negatives))
	labels := make([]bool, 0, len(positives)+len(negatives))
	for _, p := range positives {
		vectors = append(vectors, Compare(m.sources[p.Source], m.targets[p.Target], m.at))
		labels = append(labels, true)
	}
	for _, p := range negatives {
		vectors = append(vectors, Compare(m.sources[p.Source], m.targets[p.Target], m.at))
		labels = append(labels, false)
	}

	if err := m.classifier.Train(vectors, labels); err != nil {
		return fmt.Errorf("train classifier: %w", err)
	}

	m.stats.TrainingPairs = len(positives)
	m.stats.NegativeExamples = len(negatives)
	if w, ok := m.classifier.(interface{ Weights() []float64 }); ok {
		m.stats.Weights = w.Weights()
	}

	m.logger.Info("classifier trained",
		zap.Int("positives", len(positives)),
		zap.Int("negatives", len(negatives)),
		zap.Int("dropped", m.stats.DroppedTraining))
	m.state = StateTrained
	return nil
}

// sampleNegatives draws up to SampleSize non-matches in an order fixed by
// the seed. Blocked pairs pairing a training record with another person
// come first; random pairs from different blocks fill up the rest.
func (m *Matcher) sampleNegatives(known map[Pair]bool, positives int) []Pair {
	size := m.cfg.SampleSize
	if size <= 0 {
		size = len(m.pairs) + 2*positives
	}
	if m.cfg.TrainingSize > 0 && positives+size > m.cfg.TrainingSize {
		size = m.cfg.TrainingSize - positives
	}
	if size <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(m.cfg.Seed))

	trained := make(map[int]bool)
	for p := range known {
		trained[p.Source] = true
	}
	pool := make([]Pair, 0)
	for _, p := range m.pairs {
		if trained[p.Source] && !known[p] {
			pool = append(pool, p)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > size {
		pool = pool[:size]
	}

	want := len(pool) + 2*positives
	if want > size {
		want = size
	}
	seen := make(map[Pair]bool, want)
	for _, p := range pool {
		seen[p] = true
	}
	for attempts := 0; len(pool) < want && attempts < 10*want; attempts++ {
		p := Pair{Source: rng.Intn(len(m.sources)), Target: rng.Intn(len(m.targets))}
		if known[p] || seen[p] || m.blocker.Key(m.sources[p.Source]) == m.blocker.Key(m.targets[p.Target]) {
			continue
		}
		seen[p] = true
		pool = append(pool, p)
	}
	return pool
}

// Score computes a match probability for every candidate pair
func (m *Matcher) Score() error {
	if err := m.expect("score", StateTrained); err != nil {
		return err
	}

	vectors := make([]Vector, len(m.pairs))
	for i, p := range m.pairs {
		vectors[i] = Compare(m.sources[p.Source], m.targets[p.Target], m.at)
	}
	scores, err := m.classifier.Score(vectors)
	if err != nil {
		return fmt.Errorf("score pairs: %w", err)
	}
	if len(scores) != len(m.pairs) {
		return fmt.Errorf("%w: %d scores for %d pairs", ErrDegenerateModel, len(scores), len(m.pairs))
	}

	m.scores = scores
	m.state = StateScored
	return nil
}

type scored struct {
	target int
	score  float64
}

// Resolve turns scores above the threshold into links, one source
// record at a time, applying the tie policy
func (m *Matcher) Resolve() (*model.LinkSet, error) {
	if err := m.expect("resolve", StateScored); err != nil {
		return nil, err
	}

	links := model.NewLinkSet()
	bySource := make(map[int][]scored)
	for i, p := range m.pairs {
		if m.scores[i] > m.cfg.Threshold {
			bySource[p.Source] = append(bySource[p.Source], scored{target: p.Target, score: m.scores[i]})
		}
	}

	for si, src := range m.sources {
		cands := bySource[si]
		if len(cands) == 0 {
			m.recorder.Reject(model.OutcomeUnresolved, src.ID, "person",
				fmt.Sprintf("no match above %.2f", m.cfg.Threshold), displayName(src))
			continue
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].score != cands[j].score {
				return cands[i].score > cands[j].score
			}
			return m.targets[cands[i].target].ID < m.targets[cands[j].target].ID
		})

		tied := 1
		for tied < len(cands) && cands[0].score-cands[tied].score <= m.cfg.TieEpsilon {
			tied++
		}

		accept := cands[:1]
		switch {
		case tied > 1 && m.cfg.TiePolicy == TieAll:
			accept = cands[:tied]
		case tied > 1 && m.cfg.TiePolicy == TieReview:
			ids := make([]string, 0, tied)
			for _, c := range cands[:tied] {
				ids = append(ids, m.targets[c.target].ID)
			}
			m.recorder.Reject(model.OutcomeAmbiguous, src.ID, "person",
				"near-tie between "+strings.Join(ids, " "), displayName(src))
			continue
		case tied > 1:
			m.logger.Debug("near-tie resolved to first match", zap.String("record", src.ID), zap.Int("tied", tied))
		}

		for _, c := range accept {
			links.Add(model.Link{
				Record:   src.ID,
				Relation: vocab.DocumentsPerson,
				Target:   m.targets[c.target].ID,
				Score:    c.score,
			})
		}
		m.recorder.Accept()
	}

	m.logger.Info("person links resolved", zap.Int("links", links.Len()))
	m.state = StateResolved
	return links, nil
}

// Run executes every step
func (m *Matcher) Run(sources, targets []Features, links []TrainingLink) (*model.LinkSet, error) {
	if err := m.Block(sources, targets); err != nil {
		return nil, err
	}
	if err := m.Train(links); err != nil {
		return nil, err
	}
	if err := m.Score(); err != nil {
		return nil, err
	}
	return m.Resolve()
}

// PassStats returns the outcome counters of the resolve step
func (m *Matcher) PassStats() model.PassStats {
	return m.recorder.Stats()
}

func index(features []Features) map[string]int {
	idx := make(map[string]int, len(features))
	for i, f := range features {
		idx[f.ID] = i
	}
	return idx
}

func displayName(f Features) string {
	return strings.TrimSpace(f.Family + " " + f.Given)
}
