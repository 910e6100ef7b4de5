// Package graph is a small in-memory triple set used as the interchange
// format between the conversion pass, the linkers and the output writers.
package graph

import (
	"sort"
	"strings"
)

// Kind distinguishes IRIs, literals and blank nodes
type Kind uint8

const (
	KindIRI Kind = iota
	KindLiteral
	KindBlank
)

// Term is an RDF term. Terms are comparable and usable as map keys.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// IRI creates an IRI term
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Literal creates a plain string literal
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// TypedLiteral creates a literal with a datatype IRI
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral creates a language-tagged literal
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

// Blank creates a blank node term
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

// IsZero reports whether the term is unset
func (t Term) IsZero() bool {
	return t == Term{}
}

// IsIRI reports whether the term is an IRI
func (t Term) IsIRI() bool {
	return t.Kind == KindIRI
}

// String renders the term in N-Triples syntax
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	}

	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeLiteral(t.Value))
	b.WriteByte('"')
	if t.Lang != "" {
		b.WriteByte('@')
		b.WriteString(t.Lang)
	} else if t.Datatype != "" {
		b.WriteString("^^<")
		b.WriteString(t.Datatype)
		b.WriteByte('>')
	}
	return b.String()
}

// Triple is a single subject-predicate-object statement
type Triple struct {
	S Term
	P Term
	O Term
}

// T is shorthand for a triple with an IRI subject and predicate
func T(subject, predicate string, object Term) Triple {
	return Triple{S: IRI(subject), P: IRI(predicate), O: object}
}

// String renders the triple as one N-Triples line without the newline
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Graph is an insertion-ordered set of triples indexed by subject and predicate
type Graph struct {
	triples     []Triple
	seen        map[Triple]struct{}
	bySubject   map[Term][]int
	byPredicate map[string][]int
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		seen:        make(map[Triple]struct{}),
		bySubject:   make(map[Term][]int),
		byPredicate: make(map[string][]int),
	}
}

// Add inserts a triple and reports whether it was new
func (g *Graph) Add(t Triple) bool {
	if _, ok := g.seen[t]; ok {
		return false
	}
	idx := len(g.triples)
	g.triples = append(g.triples, t)
	g.seen[t] = struct{}{}
	g.bySubject[t.S] = append(g.bySubject[t.S], idx)
	g.byPredicate[t.P.Value] = append(g.byPredicate[t.P.Value], idx)
	return true
}

// AddIRI adds a triple whose three terms are all IRIs
func (g *Graph) AddIRI(subject, predicate, object string) bool {
	return g.Add(T(subject, predicate, IRI(object)))
}

// Has reports whether the triple is present
func (g *Graph) Has(t Triple) bool {
	_, ok := g.seen[t]
	return ok
}

// HasSubject reports whether any triple has the given subject
func (g *Graph) HasSubject(s Term) bool {
	return len(g.bySubject[s]) > 0
}

// Len returns the number of triples
func (g *Graph) Len() int {
	return len(g.triples)
}

// Triples returns all triples in insertion order
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// WithPredicate returns the triples using the predicate, in insertion order
func (g *Graph) WithPredicate(predicate string) []Triple {
	idx := g.byPredicate[predicate]
	out := make([]Triple, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i])
	}
	return out
}

// About returns the triples with the given subject
func (g *Graph) About(s Term) []Triple {
	idx := g.bySubject[s]
	out := make([]Triple, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.triples[i])
	}
	return out
}

// Objects returns the objects of (s, predicate, ?)
func (g *Graph) Objects(s Term, predicate string) []Term {
	var out []Term
	for _, i := range g.bySubject[s] {
		if g.triples[i].P.Value == predicate {
			out = append(out, g.triples[i].O)
		}
	}
	return out
}

// Value returns the first object of (s, predicate, ?)
func (g *Graph) Value(s Term, predicate string) (Term, bool) {
	for _, i := range g.bySubject[s] {
		if g.triples[i].P.Value == predicate {
			return g.triples[i].O, true
		}
	}
	return Term{}, false
}

// Subjects returns the distinct subjects of (?, predicate, object)
func (g *Graph) Subjects(predicate string, object Term) []Term {
	var out []Term
	seen := make(map[Term]bool)
	for _, i := range g.byPredicate[predicate] {
		t := g.triples[i]
		if t.O == object && !seen[t.S] {
			seen[t.S] = true
			out = append(out, t.S)
		}
	}
	return out
}

// SubjectsOfType returns the instances of an rdf:type class
func (g *Graph) SubjectsOfType(rdfType, class string) []Term {
	return g.Subjects(rdfType, IRI(class))
}

// Merge adds every triple of other into g
func (g *Graph) Merge(other *Graph) {
	if other == nil {
		return
	}
	for _, t := range other.triples {
		g.Add(t)
	}
}

// Sorted returns the triples ordered by their N-Triples rendering
func (g *Graph) Sorted() []Triple {
	out := g.Triples()
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
