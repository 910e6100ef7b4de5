// Package sparql is a read-only client for the graph-query endpoint
package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/ppiankov/powlink/internal/fetch"
	"github.com/ppiankov/powlink/internal/graph"
)

const (
	acceptResults  = "application/sparql-results+json"
	acceptTriples  = "application/n-triples"
	readGraphQuery = "CONSTRUCT { ?s ?p ?o } WHERE { GRAPH <%s> { ?s ?p ?o } }"
)

// Client queries one endpoint
type Client struct {
	endpoint string
	fetcher  *fetch.Fetcher
}

// NewClient creates a client for endpoint
func NewClient(endpoint string, fetcher *fetch.Fetcher) *Client {
	return &Client{endpoint: endpoint, fetcher: fetcher}
}

// Endpoint returns the endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Value is one bound variable of a result row
type Value struct {
	Type     string `json:"type"` // uri, literal, typed-literal or bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Term converts the value to a graph term
func (v Value) Term() graph.Term {
	switch v.Type {
	case "uri":
		return graph.IRI(v.Value)
	case "bnode":
		return graph.Blank(v.Value)
	}
	if v.Lang != "" {
		return graph.LangLiteral(v.Value, v.Lang)
	}
	if v.Datatype != "" {
		return graph.TypedLiteral(v.Value, v.Datatype)
	}
	return graph.Literal(v.Value)
}

// Binding is one result row keyed by variable name
type Binding map[string]Value

type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Select runs a SELECT query and returns its rows in endpoint order
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	resp, err := c.fetcher.FetchWithRetry(ctx, fetch.Request{
		URL:    c.endpoint,
		Form:   url.Values{"query": {query}},
		Accept: acceptResults,
	})
	if err != nil {
		return nil, fmt.Errorf("sparql select: %w", err)
	}

	var doc resultsDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return doc.Results.Bindings, nil
}

// Construct runs a CONSTRUCT query and parses the returned triples
func (c *Client) Construct(ctx context.Context, query string) (*graph.Graph, error) {
	resp, err := c.fetcher.FetchWithRetry(ctx, fetch.Request{
		URL:    c.endpoint,
		Form:   url.Values{"query": {query}},
		Accept: acceptTriples,
	})
	if err != nil {
		return nil, fmt.Errorf("sparql construct: %w", err)
	}

	g, err := graph.ParseNTriples(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse construct result: %w", err)
	}
	return g, nil
}

// ReadGraph exports every triple of a named graph
func (c *Client) ReadGraph(ctx context.Context, graphIRI string) (*graph.Graph, error) {
	g, err := c.Construct(ctx, fmt.Sprintf(readGraphQuery, graphIRI))
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", graphIRI, err)
	}
	return g, nil
}
