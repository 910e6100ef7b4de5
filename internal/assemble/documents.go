package assemble

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/vocab"
)

// documentPattern matches <collection>/<prisoner number>_<anything>.pdf
var documentPattern = regexp.MustCompile(`(?:^|/)([a-z_]+)/([0-9]{1,4})(_.+\.pdf)$`)

// PersonDocuments links scanned person documents to prisoner records
type PersonDocuments struct {
	globs        []string
	base         string
	labels       map[string]string
	defaultLabel string
	logger       *zap.Logger
}

// NewPersonDocuments creates the pass from the media configuration
func NewPersonDocuments(cfg model.MediaConfig, logger *zap.Logger) *PersonDocuments {
	if logger == nil {
		logger = zap.NewNop()
	}
	label := cfg.DefaultLabel
	if label == "" {
		label = "Dokumentti"
	}
	return &PersonDocuments{
		globs:        cfg.DocumentGlobs,
		base:         strings.TrimRight(cfg.DocumentBase, "/"),
		labels:       cfg.DocumentLabels,
		defaultLabel: label,
		logger:       logger,
	}
}

// Run globs the document directories. Files whose name carries no prisoner
// number are recorded as unresolved.
func (p *PersonDocuments) Run(recorder *audit.Recorder) (*model.LinkSet, *graph.Graph, error) {
	if recorder == nil {
		recorder = audit.NewRecorder(string(model.TaskPersonDocuments), nil, nil, p.logger)
	}

	links := model.NewLinkSet()
	documents := graph.New()
	for _, pattern := range p.globs {
		p.logger.Info("finding documents", zap.String("pattern", pattern))
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		sort.Strings(files)

		for _, f := range files {
			m := documentPattern.FindStringSubmatch(filepath.ToSlash(f))
			if m == nil {
				p.logger.Warn("prisoner id not identified from file", zap.String("file", f))
				recorder.Reject(model.OutcomeUnresolved, "", "file", "prisoner id not identified from file name", f)
				continue
			}
			dir, id, suffix := m[1], m[2], m[3]

			record := vocab.PrisonerIRI(id)
			doc := vocab.Media.Term(dir + "_" + id)
			links.Add(model.Link{Record: record, Relation: vocab.PersonDocumentRelation, Target: doc})
			recorder.Accept()
			p.logger.Debug("found document for prisoner", zap.String(logging.FieldRecord, record), zap.String(logging.FieldTarget, doc))

			addDocument(documents, doc,
				p.label(dir)+" "+id,
				vocab.PersonDocument,
				fmt.Sprintf("%s/%s/%s%s", p.base, dir, id, suffix))
		}
	}

	p.logger.Info("person documents linked",
		zap.Int("links", links.Len()),
		zap.Int("unidentified", recorder.Stats().Unresolved))
	return links, documents, nil
}

func (p *PersonDocuments) label(dir string) string {
	if l, ok := p.labels[dir]; ok && l != "" {
		return l
	}
	return p.defaultLabel
}
