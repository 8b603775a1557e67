package step

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoIdentifier is returned when a logical line does not start with an
// entity instance name of the form "#123 =".
var ErrNoIdentifier = errors.New("no entity identifier")

// SyntaxError reports a malformed attribute list.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

// Entity is the parsed form of one entity instance line.
type Entity struct {
	ID         string  // "#123"
	Type       string  // upper-cased type name, e.g. "IFCPROPERTYSET"
	Attributes []Value // top-level attribute values
}

// ParseEntity parses a logical entity line such as
//
//	#155= IFCPROPERTYSET('pset1',$,'Branch Properties',$,(#159,#163));
//
// For complex instances, e.g. "#7=(IFCA() IFCB(1));", Type and Attributes
// come from the first partial entity.
//
// If the identifier is missing the error wraps ErrNoIdentifier. If only
// the attribute list is malformed, the returned Entity still carries ID
// (and Type when it could be read) together with a *SyntaxError.
func ParseEntity(line string) (Entity, error) {
	p := &parser{s: line}

	id, ok := p.identifier()
	if !ok {
		return Entity{}, fmt.Errorf("%w: %q", ErrNoIdentifier, truncate(line, 40))
	}
	ent := Entity{ID: id}

	p.skipSpace()
	if p.peek() == '(' {
		return p.complexInstance(ent)
	}

	name := p.keyword()
	if name == "" {
		return ent, p.errorf("expected entity type name")
	}
	ent.Type = strings.ToUpper(name)

	p.skipSpace()
	if p.peek() != '(' {
		return ent, p.errorf("expected '(' after %s", ent.Type)
	}
	attrs, err := p.list()
	if err != nil {
		return ent, err
	}
	ent.Attributes = attrs
	return ent, p.terminator()
}

// ParseID extracts only the leading identifier of a logical line.
func ParseID(line string) (string, bool) {
	p := &parser{s: line}
	return p.identifier()
}

type parser struct {
	s   string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

// identifier reads "#<digits>" followed by optional whitespace and '='.
func (p *parser) identifier() (string, bool) {
	p.skipSpace()
	if p.peek() != '#' {
		return "", false
	}
	start := p.pos
	p.pos++
	digits := p.pos
	for !p.eof() && isDigit(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == digits {
		return "", false
	}
	id := p.s[start:p.pos]
	p.skipSpace()
	if p.peek() != '=' {
		return "", false
	}
	p.pos++
	return id, true
}

func (p *parser) keyword() string {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if isLetter(c) || c == '_' || (p.pos > start && isDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	return p.s[start:p.pos]
}

func (p *parser) complexInstance(ent Entity) (Entity, error) {
	p.pos++ // (
	first := true
	for {
		p.skipSpace()
		if p.eof() {
			return ent, p.errorf("unterminated complex instance")
		}
		if p.peek() == ')' {
			p.pos++
			break
		}
		name := p.keyword()
		if name == "" {
			return ent, p.errorf("expected partial entity name")
		}
		p.skipSpace()
		if p.peek() != '(' {
			return ent, p.errorf("expected '(' after %s", name)
		}
		attrs, err := p.list()
		if err != nil {
			return ent, err
		}
		if first {
			ent.Type = strings.ToUpper(name)
			ent.Attributes = attrs
			first = false
		}
	}
	return ent, p.terminator()
}

// terminator accepts an optional ';' and trailing whitespace.
func (p *parser) terminator() error {
	p.skipSpace()
	if p.peek() == ';' {
		p.pos++
		p.skipSpace()
	}
	if !p.eof() {
		return p.errorf("unexpected trailing text %q", truncate(p.s[p.pos:], 20))
	}
	return nil
}

// list parses "(v1, v2, ...)"; the cursor must be on '('.
func (p *parser) list() ([]Value, error) {
	p.pos++ // (
	items := []Value{}
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return items, nil
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return items, nil
		case 0:
			return nil, p.errorf("unterminated list")
		default:
			return nil, p.errorf("expected ',' or ')', found %q", p.peek())
		}
	}
}

func (p *parser) value() (Value, error) {
	c := p.peek()
	switch {
	case c == '$':
		p.pos++
		return Value{Kind: KindNull}, nil
	case c == '*':
		p.pos++
		return Value{Kind: KindDerived}, nil
	case c == '#':
		return p.ref()
	case c == '\'':
		return p.str()
	case c == '"':
		return p.binary()
	case c == '.':
		return p.enum()
	case c == '(':
		items, err := p.list()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindList, Items: items}, nil
	case isLetter(c) || c == '_':
		name := p.keyword()
		p.skipSpace()
		if p.peek() != '(' {
			return Value{}, p.errorf("expected '(' after typed value %s", name)
		}
		items, err := p.list()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTyped, Text: strings.ToUpper(name), Items: items}, nil
	case isDigit(c) || c == '-' || c == '+':
		return p.number(), nil
	case c == 0:
		return Value{}, p.errorf("unexpected end of input")
	default:
		return Value{}, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) ref() (Value, error) {
	start := p.pos
	p.pos++ // #
	for !p.eof() && isDigit(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start+1 {
		return Value{}, p.errorf("reference without digits")
	}
	return Value{Kind: KindRef, Text: p.s[start:p.pos]}, nil
}

// str reads a quoted string; a doubled quote stands for one quote.
func (p *parser) str() (Value, error) {
	p.pos++ // '
	var sb strings.Builder
	for !p.eof() {
		c := p.s[p.pos]
		p.pos++
		if c != '\'' {
			sb.WriteByte(c)
			continue
		}
		if p.peek() == '\'' {
			sb.WriteByte('\'')
			p.pos++
			continue
		}
		return Value{Kind: KindString, Text: sb.String()}, nil
	}
	return Value{}, p.errorf("unterminated string")
}

func (p *parser) binary() (Value, error) {
	p.pos++ // "
	end := strings.IndexByte(p.s[p.pos:], '"')
	if end < 0 {
		return Value{}, p.errorf("unterminated binary literal")
	}
	text := p.s[p.pos : p.pos+end]
	p.pos += end + 1
	return Value{Kind: KindBinary, Text: text}, nil
}

func (p *parser) enum() (Value, error) {
	p.pos++ // .
	end := strings.IndexByte(p.s[p.pos:], '.')
	if end < 0 {
		return Value{}, p.errorf("unterminated enumeration")
	}
	text := strings.TrimSpace(p.s[p.pos : p.pos+end])
	p.pos += end + 1
	return Value{Kind: KindEnum, Text: text}, nil
}

func (p *parser) number() Value {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if isDigit(c) || c == '.' || c == '-' || c == '+' || c == 'E' || c == 'e' {
			p.pos++
			continue
		}
		break
	}
	return Value{Kind: KindNumber, Text: p.s[start:p.pos]}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
