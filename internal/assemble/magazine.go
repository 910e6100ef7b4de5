package assemble

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/vocab"
)

// Magazine index columns
const (
	ColumnReference = "VIITE"
	ColumnDirectory = "HAKEMISTO"
	ColumnFile      = "TIEDOSTONIMI"
)

// MagazineIndex maps textual magazine references to issue documents
type MagazineIndex struct {
	issues    map[string][]string
	documents *graph.Graph
}

// ReadMagazineIndex parses the index CSV. Rows with an empty cell are
// skipped. thumbBase prefixes the thumbnail URLs.
func ReadMagazineIndex(r io.Reader, thumbBase string) (*MagazineIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read magazine index header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range []string{ColumnReference, ColumnDirectory, ColumnFile} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("magazine index has no %s column", name)
		}
	}

	idx := &MagazineIndex{issues: make(map[string][]string), documents: graph.New()}
	thumbBase = strings.TrimRight(thumbBase, "/")
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read magazine index: %w", err)
		}
		if len(row) < len(header) || hasEmptyCell(row) {
			continue
		}

		ref := strings.TrimSpace(row[col[ColumnReference]])
		dir := strings.TrimSpace(row[col[ColumnDirectory]])
		file := strings.TrimSpace(row[col[ColumnFile]])

		uri := vocab.Media.Term(fmt.Sprintf("sotilaan_aani_%s_%s", dir, file))
		idx.issues[ref] = appendUnique(idx.issues[ref], uri)
		addDocument(idx.documents, uri,
			fmt.Sprintf("Sotilaan Ääni %s/%s", dir, file),
			vocab.SotilaanAani,
			fmt.Sprintf("%s/%s/Thumbs/%s.jpg", thumbBase, dir, file))
	}
	return idx, nil
}

// LoadMagazineIndex reads the index CSV at path
func LoadMagazineIndex(path, thumbBase string) (*MagazineIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open magazine index: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadMagazineIndex(f, thumbBase)
}

// Issues returns the documents filed under a reference
func (m *MagazineIndex) Issues(ref string) []string {
	return m.issues[strings.TrimSpace(ref)]
}

// Documents returns the issue resources
func (m *MagazineIndex) Documents() *graph.Graph {
	return m.documents
}

// LinkMagazine links the textual magazine and photograph references of the
// records to indexed issues. References with no issue are recorded as
// unresolved.
func LinkMagazine(records *graph.Graph, idx *MagazineIndex, recorder *audit.Recorder, logger *zap.Logger) *model.LinkSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = audit.NewRecorder(string(model.TaskMediaMagazine), nil, nil, logger)
	}

	links := model.NewLinkSet()
	refs := append(records.WithPredicate(vocab.SotilaanAaniReference), records.WithPredicate(vocab.PhotographSotilaanAani)...)
	for _, t := range refs {
		ref := strings.TrimSpace(t.O.Value)
		issues := idx.Issues(ref)
		if len(issues) == 0 {
			logger.Warn("no Sotilaan Ääni issue found", zap.String(logging.FieldRecord, t.S.Value), zap.String(logging.FieldValue, ref))
			recorder.Reject(model.OutcomeUnresolved, t.S.Value, vocab.LocalName(t.P.Value), "no magazine issue", ref)
			continue
		}
		for _, uri := range issues {
			links.Add(model.Link{Record: t.S.Value, Relation: vocab.SotilaanAaniMagazine, Target: uri, Literal: ref})
			logger.Debug("found Sotilaan Ääni issue", zap.String(logging.FieldTarget, uri), zap.String(logging.FieldValue, ref))
		}
		recorder.Accept()
	}

	stats := recorder.Stats()
	logger.Info("Sotilaan Ääni references linked",
		zap.Int("links", links.Len()),
		zap.Int("unidentified", stats.Unresolved))
	return links
}

func hasEmptyCell(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) == "" {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
