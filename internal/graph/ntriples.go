package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseNTriples reads an N-Triples document into a new graph
func ParseNTriples(r io.Reader) (*Graph, error) {
	g := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		g.Add(t)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan n-triples: %w", err)
	}

	return g, nil
}

// WriteNTriples writes the graph sorted, one triple per line
func WriteNTriples(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, t := range g.Sorted() {
		if _, err := bw.WriteString(t.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func parseLine(line string) (Triple, error) {
	p := &lineParser{s: line}

	s, err := p.term()
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	pred, err := p.term()
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}
	if !pred.IsIRI() {
		return Triple{}, fmt.Errorf("predicate must be an IRI")
	}
	o, err := p.term()
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}

	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '.' {
		return Triple{}, fmt.Errorf("missing terminating '.'")
	}

	return Triple{S: s, P: pred, O: o}, nil
}

type lineParser struct {
	s   string
	pos int
}

func (p *lineParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *lineParser) term() (Term, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return Term{}, io.ErrUnexpectedEOF
	}

	switch {
	case p.s[p.pos] == '<':
		iri, err := p.iri()
		if err != nil {
			return Term{}, err
		}
		return IRI(iri), nil

	case strings.HasPrefix(p.s[p.pos:], "_:"):
		start := p.pos + 2
		end := start
		for end < len(p.s) && p.s[end] != ' ' && p.s[end] != '\t' {
			end++
		}
		p.pos = end
		return Blank(p.s[start:end]), nil

	case p.s[p.pos] == '"':
		return p.literal()
	}

	return Term{}, fmt.Errorf("unexpected character %q at %d", p.s[p.pos], p.pos)
}

func (p *lineParser) iri() (string, error) {
	end := strings.IndexByte(p.s[p.pos:], '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI")
	}
	iri := p.s[p.pos+1 : p.pos+end]
	p.pos += end + 1
	return iri, nil
}

func (p *lineParser) literal() (Term, error) {
	p.pos++ // opening quote
	var b strings.Builder
	closed := false

	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			closed = true
			break
		}
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(p.s[p.pos:])
			b.WriteRune(r)
			p.pos += size
			continue
		}

		if p.pos+1 >= len(p.s) {
			return Term{}, fmt.Errorf("dangling escape")
		}
		esc := p.s[p.pos+1]
		p.pos += 2
		switch esc {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(esc)
		case 'u', 'U':
			width := 4
			if esc == 'U' {
				width = 8
			}
			if p.pos+width > len(p.s) {
				return Term{}, fmt.Errorf("short unicode escape")
			}
			code, err := strconv.ParseUint(p.s[p.pos:p.pos+width], 16, 32)
			if err != nil {
				return Term{}, fmt.Errorf("bad unicode escape: %w", err)
			}
			b.WriteRune(rune(code))
			p.pos += width
		default:
			return Term{}, fmt.Errorf("unknown escape \\%c", esc)
		}
	}

	if !closed {
		return Term{}, fmt.Errorf("unterminated literal")
	}

	value := b.String()
	if strings.HasPrefix(p.s[p.pos:], "^^") {
		p.pos += 2
		if p.pos >= len(p.s) || p.s[p.pos] != '<' {
			return Term{}, fmt.Errorf("datatype must be an IRI")
		}
		dt, err := p.iri()
		if err != nil {
			return Term{}, err
		}
		return TypedLiteral(value, dt), nil
	}

	if p.pos < len(p.s) && p.s[p.pos] == '@' {
		start := p.pos + 1
		end := start
		for end < len(p.s) && p.s[end] != ' ' && p.s[end] != '\t' && p.s[end] != '.' {
			end++
		}
		p.pos = end
		return LangLiteral(value, p.s[start:end]), nil
	}

	return Literal(value), nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
