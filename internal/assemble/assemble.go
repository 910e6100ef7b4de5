// Package assemble turns accepted links into the output graph and builds
// the document resources the media passes link to.
package assemble

import (
	"strings"

	"github.com/ppiankov/powlink/internal/graph"
	"github.com/ppiankov/powlink/internal/model"
	"github.com/ppiankov/powlink/internal/vocab"
)

// SourceSeparator joins the citations of one link
const SourceSeparator = "; "

// Assemble merges the link sets into one graph. Repeated links are written
// once. A link with a citation gets a reified statement per citation
// group, numbered per record and relation.
func Assemble(sets ...*model.LinkSet) *graph.Graph {
	merged := model.NewLinkSet()
	for _, s := range sets {
		merged.Merge(s)
	}

	g := graph.New()
	counts := make(map[string]int)
	for _, l := range merged.Links() {
		t := graph.T(l.Record, l.Relation, graph.IRI(l.Target))
		g.Add(t)

		sources := splitSources(l.Source)
		if len(sources) == 0 {
			continue
		}
		key := l.Record + " " + l.Relation
		id := vocab.ReificationIRI(l.Record, l.Relation, counts[key])
		counts[key]++
		g.Reify(id, t, sources...)
	}
	return g
}

func splitSources(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, SourceSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// addDocument writes the label, class and content URL of a document
func addDocument(g *graph.Graph, uri, label, class, contentURL string) {
	g.Add(graph.T(uri, vocab.SKOSPrefLabel, graph.Literal(label)))
	g.AddIRI(uri, vocab.RDFType, class)
	g.AddIRI(uri, vocab.ContentURL, contentURL)
}
