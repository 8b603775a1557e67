package store

import (
	"errors"
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/step"
)

// Parser builds a Store from raw IFC text.
type Parser struct {
	log *logger.Logger
}

// NewParser creates a Parser. A nil logger discards output.
func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewNop()
	}
	return &Parser{log: log}
}

// Build parses raw without logging.
func Build(raw string) *Store {
	return NewParser(nil).Parse(raw)
}

type section int

const (
	beforeData section = iota
	inData
	afterData
)

// Parse indexes every entity of the DATA section. Malformed lines are
// skipped and counted in Stats; parsing never fails. Input without a DATA
// section yields an empty store.
func (p *Parser) Parse(raw string) *Store {
	s := newStore()
	state := beforeData

	sc := newScanner(raw)
	for state != afterData {
		stmt, ok := sc.next()
		if !ok {
			break
		}

		switch state {
		case beforeData:
			if isDataHeader(stmt) {
				state = inData
			}
		case inData:
			if strings.EqualFold(stmt, "ENDSEC") {
				state = afterData
				continue
			}
			s.stats.Statements++
			p.add(s, stmt)
		}
	}

	switch state {
	case beforeData:
		s.stats.NoData = true
		p.log.Debugw("no DATA section found")
	case inData:
		s.stats.Truncated = true
		if rest := sc.remainder(); rest != "" {
			p.log.Debugw("dropping incomplete trailing entity", "text", truncate(rest, 60))
		}
		p.log.Warnw("DATA section not terminated by ENDSEC", "entities", s.Len())
	}

	p.log.Debugw("entity store built",
		"entities", s.Len(),
		"skipped", s.stats.Skipped,
		"unparsed", s.stats.Unparsed,
		"duplicates", s.stats.Duplicates)
	return s
}

func (p *Parser) add(s *Store, stmt string) {
	line := stmt + ";"
	parsed, err := step.ParseEntity(line)
	if errors.Is(err, step.ErrNoIdentifier) {
		s.stats.Skipped++
		p.log.Debugw("skipping line without identifier", "text", truncate(stmt, 60))
		return
	}

	ent := &Entity{ID: parsed.ID, Type: parsed.Type, Raw: line}
	if err != nil {
		s.stats.Unparsed++
		p.log.Debugw("unparsable attribute list", "id", parsed.ID, "error", err)
	} else {
		ent.Attributes = parsed.Attributes
	}
	s.put(ent)
}

// scanner splits STEP text into statements terminated by ';' outside
// strings and comments. Physical lines are trimmed and joined with a
// single space; comments are dropped. A line break inside a string is
// removed without touching the surrounding characters.
type scanner struct {
	src string
	pos int
	buf []byte
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func (sc *scanner) next() (string, bool) {
	sc.buf = sc.buf[:0]
	inString := false
	lineStart := false

	for sc.pos < len(sc.src) {
		c := sc.src[sc.pos]
		sc.pos++

		switch {
		case inString && (c == '\n' || c == '\r'):
			continue
		case c == '\n' || c == '\r':
			if !lineStart {
				sc.trimRight()
				if len(sc.buf) > 0 {
					sc.buf = append(sc.buf, ' ')
				}
				lineStart = true
			}
			continue
		case lineStart && (c == ' ' || c == '\t'):
			continue
		case !inString && c == '/' && sc.pos < len(sc.src) && sc.src[sc.pos] == '*':
			end := strings.Index(sc.src[sc.pos+1:], "*/")
			if end < 0 {
				sc.pos = len(sc.src)
			} else {
				sc.pos += end + 3
			}
			continue
		case !inString && c == ';':
			return strings.TrimSpace(string(sc.buf)), true
		case c == '\'':
			inString = !inString
		}
		lineStart = false
		sc.buf = append(sc.buf, c)
	}
	return "", false
}

func (sc *scanner) trimRight() {
	for len(sc.buf) > 0 {
		switch sc.buf[len(sc.buf)-1] {
		case ' ', '\t':
			sc.buf = sc.buf[:len(sc.buf)-1]
		default:
			return
		}
	}
}

// remainder returns the unterminated text left over once next has
// reported end of input.
func (sc *scanner) remainder() string {
	return strings.TrimSpace(string(sc.buf))
}

// isDataHeader matches "DATA" and the parameterised "DATA('name',(...))"
// form of later STEP editions.
func isDataHeader(stmt string) bool {
	if len(stmt) < 4 || !strings.EqualFold(stmt[:4], "DATA") {
		return false
	}
	rest := strings.TrimSpace(stmt[4:])
	return rest == "" || rest[0] == '('
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
