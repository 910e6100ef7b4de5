package graph

import "github.com/ppiankov/powlink/internal/vocab"

// Reify adds a reified statement node id describing t with one dct:source
// literal per source. Nothing is added without sources.
func (g *Graph) Reify(id string, t Triple, sources ...string) {
	if len(sources) == 0 {
		return
	}
	g.Add(T(id, vocab.RDFSubject, t.S))
	g.Add(T(id, vocab.RDFPredicate, t.P))
	g.Add(T(id, vocab.RDFObject, t.O))
	g.AddIRI(id, vocab.RDFType, vocab.RDFStatement)
	for _, s := range sources {
		g.Add(T(id, vocab.DCTSource, Literal(s)))
	}
}

// Sources returns the dct:source literals of every reification of t, in
// insertion order without duplicates
func (g *Graph) Sources(t Triple) []string {
	var out []string
	seen := make(map[string]bool)
	for _, node := range g.Subjects(vocab.RDFSubject, t.S) {
		if !g.Has(Triple{S: node, P: IRI(vocab.RDFPredicate), O: t.P}) ||
			!g.Has(Triple{S: node, P: IRI(vocab.RDFObject), O: t.O}) {
			continue
		}
		for _, src := range g.Objects(node, vocab.DCTSource) {
			if !seen[src.Value] {
				seen[src.Value] = true
				out = append(out, src.Value)
			}
		}
	}
	return out
}
