package convert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/powlink/internal/audit"
	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/logging"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/normalize"
	"github.com/ppiankov/powlink/internal/vocab"
)

// Pass is the diagnostics pass name of the conversion
const Pass = "convert"

const (
	columnID   = 0
	columnName = 1
)

// Converter builds prisoner records from CSV rows. The first column holds
// the prisoner number and the second the "FAMILY Given" name.
type Converter struct {
	mapping  *Mapping
	ranges   normalize.Bounds
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewConverter creates a converter. ranges bounds the date ranges embedded
// in ";" entries.
func NewConverter(mapping *Mapping, ranges normalize.Bounds, recorder *audit.Recorder, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = audit.NewRecorder(Pass, nil, nil, logger)
	}
	return &Converter{mapping: mapping, ranges: ranges, recorder: recorder, logger: logger}
}

// Convert reads every row of r. Row problems go to the diagnostics; only
// unreadable CSV is an error.
func (c *Converter) Convert(r io.Reader) (*graph.Graph, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d columns, want an id and a name column first", len(header))
	}

	g := graph.New()
	used := make(map[string]bool)
	unmapped := make(map[string]bool)
	rows := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		rows++
		c.convertRow(g, header, row, used, unmapped)
	}

	if len(unmapped) > 0 {
		columns := make([]string, 0, len(unmapped))
		for col := range unmapped {
			columns = append(columns, col)
		}
		sort.Strings(columns)
		c.logger.Debug("unmapped columns", zap.Strings("columns", columns))
	}

	stats := c.recorder.Stats()
	c.logger.Info("converted rows",
		zap.Int("rows", rows),
		zap.Int("records", stats.Accepted),
		zap.Int("skipped", stats.Rejected),
		zap.Int("empty", stats.Unresolved))
	return g, nil
}

func (c *Converter) convertRow(g *graph.Graph, header, row []string, used, unmapped map[string]bool) {
	name := normalize.SplitPersonName(cell(row, columnName))

	number, ok := prisonerNumber(cell(row, columnID))
	if !ok {
		c.logger.Warn("person missing id number", zap.String("name", name.Original))
		c.recorder.Reject(model.OutcomeRejected, "", header[columnID], "missing id number", cell(row, columnID))
		return
	}
	for used[number] {
		number += "_duplicate"
	}
	used[number] = true
	record := vocab.PrisonerIRI(number)

	diagnose := func(column, reason, value string) {
		c.recorder.Diagnose(audit.Entry{Record: record, Name: name.Full, Field: column, Reason: reason, Value: value})
	}

	rg := graph.New()
	if name.Original != "" && name.Family == "" {
		diagnose(header[columnName], "family name not recognized", name.Original)
	}
	addLiteral(rg, record, vocab.GivenNames, name.Given)
	addLiteral(rg, record, vocab.FamilyName, name.Family)
	addLiteral(rg, record, vocab.SKOSPrefLabel, name.Full)
	addLiteral(rg, record, vocab.OriginalName, name.Original)

	counts := make(map[string]int)
	for col := columnName + 1; col < len(header) && col < len(row); col++ {
		f, ok := c.mapping.lookup(header[col])
		if !ok {
			unmapped[header[col]] = true
			continue
		}
		raw := strings.TrimSpace(row[col])
		if raw == "" {
			continue
		}

		for _, v := range normalize.Normalize(raw, normalize.Policy{Separator: f.separator, Ranges: f.rangeBounds(c.ranges)}) {
			for _, e := range v.Errors {
				diagnose(header[col], e, v.Original)
			}

			obj, problem := f.convert(v.Value)
			if problem != "" && len(v.Errors) == 0 {
				diagnose(header[col], problem, v.Original)
			}
			if obj.Value == "" {
				continue
			}

			t := graph.Triple{S: graph.IRI(record), P: graph.IRI(f.Relation), O: obj}
			rg.Add(t)
			if len(v.Sources) > 0 {
				rg.Reify(vocab.ReificationIRI(record, f.Relation, counts[f.Relation]), t, v.Sources...)
				counts[f.Relation]++
			}
		}
	}

	if rg.Len() == 0 {
		c.logger.Debug("no data found", zap.String(logging.FieldRecord, record))
		c.recorder.Reject(model.OutcomeUnresolved, record, "", "no data about the person", "")
		return
	}
	rg.AddIRI(record, vocab.RDFType, vocab.PrisonerRecord)
	g.Merge(rg)
	c.recorder.Accept()
}

// rangeBounds bounds the dates embedded in ";" entries of f. Sides the
// field leaves unset fall back to global.
func (f field) rangeBounds(global normalize.Bounds) normalize.Bounds {
	b := global
	if !f.bounds.After.IsZero() {
		b.After = f.bounds.After
	}
	if !f.bounds.Before.IsZero() {
		b.Before = f.bounds.Before
	}
	return b
}

// convert applies the remap table and the converter of f. A non-empty
// problem describes a value that could not be converted or validated.
func (f field) convert(value string) (graph.Term, string) {
	if remapped, ok := f.Remap[value]; ok {
		value = remapped
	}

	switch f.Converter {
	case ConvertDate:
		r, err := normalize.ParseDate(value)
		if err != nil {
			return graph.Literal(value), err.Error()
		}
		problem := f.bounds.Check(r)
		if r.Exact() {
			return graph.TypedLiteral(r.Begin.Format(normalize.DateLayout), vocab.XSDDate), problem
		}
		return graph.Literal(value), problem
	case ConvertLower:
		return graph.Literal(cases.Lower(language.Finnish).String(value)), ""
	case ConvertStripDash:
		return graph.Literal(strings.Trim(value, "- ")), ""
	default:
		return graph.Literal(value), ""
	}
}

// prisonerNumber accepts a non-negative integer id and strips its leading
// zeros
func prisonerNumber(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, "0123456789") != "" {
		return "", false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

func addLiteral(g *graph.Graph, subject, predicate, value string) {
	if value = strings.TrimSpace(value); value != "" {
		g.Add(graph.T(subject, predicate, graph.Literal(value)))
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
