// Package step parses entity instances from the DATA section of an
// ISO 10303-21 (STEP physical file) exchange structure, the text format
// used by IFC exports.
package step

import "strings"

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull    Kind = iota // $
	KindDerived             // *
	KindRef                 // #123
	KindString              // 'text'
	KindEnum                // .TRUE.
	KindNumber              // 12, -1.5E-3, or any other bare token
	KindBinary              // "0FF"
	KindList                // (a,b,c)
	KindTyped               // IFCLABEL('x')
)

var kindNames = map[Kind]string{
	KindNull:    "null",
	KindDerived: "derived",
	KindRef:     "ref",
	KindString:  "string",
	KindEnum:    "enum",
	KindNumber:  "number",
	KindBinary:  "binary",
	KindList:    "list",
	KindTyped:   "typed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is one attribute value of an entity instance.
//
// Text holds the reference ("#12"), the unescaped string, the enumeration
// name without dots, the number or binary literal, or the type name of a
// typed value. Items holds list members or typed-value arguments.
type Value struct {
	Kind  Kind
	Text  string
	Items []Value
}

// Ref returns the referenced identifier if v is a reference.
func (v Value) Ref() (string, bool) {
	if v.Kind != KindRef {
		return "", false
	}
	return v.Text, true
}

// RefList returns the identifiers of a non-empty list made only of references.
func (v Value) RefList() ([]string, bool) {
	if v.Kind != KindList || len(v.Items) == 0 {
		return nil, false
	}
	ids := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		if item.Kind != KindRef {
			return nil, false
		}
		ids = append(ids, item.Text)
	}
	return ids, true
}

// Scalar returns the plain text carried by v: the string itself, the
// number or enum literal, or the single argument of a typed value such as
// IFCLABEL('PIPE'). Lists, references and unset values have no scalar.
func (v Value) Scalar() (string, bool) {
	switch v.Kind {
	case KindString, KindNumber, KindEnum:
		return v.Text, true
	case KindTyped:
		if len(v.Items) == 1 {
			return v.Items[0].Scalar()
		}
	}
	return "", false
}

// Refs collects every reference nested anywhere inside v, in order of
// appearance.
func Refs(v Value) []string {
	var out []string
	collectRefs(v, &out)
	return out
}

func collectRefs(v Value, out *[]string) {
	switch v.Kind {
	case KindRef:
		*out = append(*out, v.Text)
	case KindList, KindTyped:
		for _, item := range v.Items {
			collectRefs(item, out)
		}
	}
}

// String renders v back in exchange-file syntax.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.Kind {
	case KindNull:
		sb.WriteByte('$')
	case KindDerived:
		sb.WriteByte('*')
	case KindString:
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(v.Text, "'", "''"))
		sb.WriteByte('\'')
	case KindEnum:
		sb.WriteByte('.')
		sb.WriteString(v.Text)
		sb.WriteByte('.')
	case KindBinary:
		sb.WriteByte('"')
		sb.WriteString(v.Text)
		sb.WriteByte('"')
	case KindList:
		writeItems(sb, v.Items)
	case KindTyped:
		sb.WriteString(v.Text)
		writeItems(sb, v.Items)
	default:
		sb.WriteString(v.Text)
	}
}

func writeItems(sb *strings.Builder, items []Value) {
	sb.WriteByte('(')
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(',')
		}
		item.write(sb)
	}
	sb.WriteByte(')')
}
