package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ifcchunk/internal/ifctest"
)

func TestBuild_Branch(t *testing.T) {
	s := Build(ifctest.Branch)

	assert.Equal(t, 13, s.Len())

	fitting, ok := s.Get("#278")
	require.True(t, ok)
	assert.Equal(t, "IFCFLOWFITTING", fitting.Type)
	assert.Equal(t, "#278= IFCFLOWFITTING('fitting1',$,'WELD 1',$,$,$,$,$);", fitting.Raw)
	assert.Len(t, fitting.Attributes, 8)

	assembly, ok := s.Get("#4530")
	require.True(t, ok)
	assert.Equal(t, "IFCELEMENTASSEMBLY", assembly.Type)

	assert.False(t, s.Has("#9999"))
	assert.Equal(t, "#1", s.IDs()[0], "enumeration follows file order")

	stats := s.Stats()
	assert.Equal(t, 13, stats.Statements)
	assert.Zero(t, stats.Skipped)
	assert.False(t, stats.Truncated)
	assert.False(t, stats.NoData)
}

func TestBuild_MultiLineEntities(t *testing.T) {
	raw := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n" +
		"#155= IFCPROPERTYSET('pset1',$,\n" +
		"    'Branch Properties',$,\n" +
		"    (#159,\n" +
		"     #163));\n" +
		"#159= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('BRANCH'),$);\r\n" +
		"#163=\r\n" +
		"\tIFCPROPERTYSINGLEVALUE('NAME',$,\r\n" +
		"\tIFCLABEL('B1'),$);\r\n" +
		"ENDSEC;\nEND-ISO-10303-21;\n"

	s := Build(raw)
	require.Equal(t, 3, s.Len())

	pset, ok := s.Get("#155")
	require.True(t, ok)
	assert.Equal(t, "#155= IFCPROPERTYSET('pset1',$, 'Branch Properties',$, (#159, #163));", pset.Raw)
	require.Len(t, pset.Attributes, 5)
	ids, ok := pset.Attributes[4].RefList()
	require.True(t, ok)
	assert.Equal(t, []string{"#159", "#163"}, ids)

	name, ok := s.Get("#163")
	require.True(t, ok)
	assert.Equal(t, "#163= IFCPROPERTYSINGLEVALUE('NAME',$, IFCLABEL('B1'),$);", name.Raw)
	v, _ := name.Attributes[2].Scalar()
	assert.Equal(t, "B1", v)
}

func TestBuild_LineBreakInsideString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"leading spaces kept", "#1= IFCPROPERTYSINGLEVALUE('NAME',$,IFCLABEL('B\n   1'),$);", "B   1"},
		{"word split", "#1= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('BRA\nNCH'),$);", "BRANCH"},
		{"crlf", "#1= IFCPROPERTYSINGLEVALUE('NAME',$,IFCLABEL('B \r\n1'),$);", "B 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build("DATA;\n" + tt.raw + "\nENDSEC;\n")
			ent, ok := s.Get("#1")
			require.True(t, ok)
			require.Len(t, ent.Attributes, 4)
			v, ok := ent.Attributes[2].Scalar()
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestBuild_SemicolonsInsideStringsAndComments(t *testing.T) {
	raw := "DATA;\n" +
		"/* exporter comment; with a semicolon */\n" +
		"#1= IFCWALL('a;b',$,'it''s; fine',$,$,$,$,$);\n" +
		"#2= IFCSLAB(/* inline; */'slab',$,$,$,$,$,$,$,$);\n" +
		"ENDSEC;\n"

	s := Build(raw)
	require.Equal(t, 2, s.Len())

	wall, _ := s.Get("#1")
	assert.Equal(t, "a;b", wall.Attributes[0].Text)
	assert.Equal(t, "it's; fine", wall.Attributes[2].Text)

	slab, _ := s.Get("#2")
	assert.Equal(t, "#2= IFCSLAB('slab',$,$,$,$,$,$,$,$);", slab.Raw)
}

func TestBuild_EmptyDataSection(t *testing.T) {
	s := Build("ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\nENDSEC;\nEND-ISO-10303-21;\n")
	assert.Zero(t, s.Len())
	assert.Empty(t, s.All())
	assert.False(t, s.Stats().NoData)
}

func TestBuild_MissingDataSection(t *testing.T) {
	for _, raw := range []string{"", "ISO-10303-21;\nHEADER;\nENDSEC;\n", "not an ifc file at all"} {
		s := Build(raw)
		assert.Zero(t, s.Len(), "input %q", raw)
		assert.True(t, s.Stats().NoData, "input %q", raw)
	}
}

func TestBuild_TruncatedFile(t *testing.T) {
	raw := "DATA;\n#1= IFCWALL('w',$,$,$,$,$,$,$);\n#2= IFCSLAB('s',$,\n"

	s := Build(raw)
	assert.Equal(t, 1, s.Len(), "incomplete trailing entity is dropped")
	assert.True(t, s.Has("#1"))
	assert.True(t, s.Stats().Truncated)
}

func TestBuild_SkipsMalformedLines(t *testing.T) {
	raw := "DATA;\n" +
		"garbage without identifier;\n" +
		"#5 IFCWALL('missing equals');\n" +
		"#6= IFCWALL((#1,#2);\n" +
		"#7= IFCWALL('ok',$,$,$,$,$,$,$);\n" +
		"ENDSEC;\n"

	s := Build(raw)
	assert.Equal(t, 2, s.Len())

	broken, ok := s.Get("#6")
	require.True(t, ok, "identifier survives a malformed attribute list")
	assert.Equal(t, "IFCWALL", broken.Type)
	assert.Nil(t, broken.Attributes)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Unparsed)
}

func TestBuild_DuplicateIdentifierLastWins(t *testing.T) {
	raw := "DATA;\n#1= IFCWALL('first',$,$,$,$,$,$,$);\n#1= IFCWALL('second',$,$,$,$,$,$,$);\nENDSEC;\n"

	s := Build(raw)
	require.Equal(t, 1, s.Len())
	wall, _ := s.Get("#1")
	assert.Equal(t, "second", wall.Attributes[0].Text)
	assert.Equal(t, 1, s.Stats().Duplicates)
}

func TestBuild_ParameterisedDataHeader(t *testing.T) {
	raw := "HEADER;\nENDSEC;\nDATA('main',(#1));\n#1= IFCWALL('w',$,$,$,$,$,$,$);\nENDSEC;\n"
	s := Build(raw)
	assert.Equal(t, 1, s.Len())
}

func TestBuild_Idempotent(t *testing.T) {
	a := Build(ifctest.Branch)
	b := Build(ifctest.Branch)

	require.Equal(t, a.IDs(), b.IDs())
	for _, id := range a.IDs() {
		ea, _ := a.Get(id)
		eb, _ := b.Get(id)
		assert.Equal(t, ea, eb)
	}
}

func TestStore_OfType(t *testing.T) {
	s := Build(ifctest.Multiple)

	assemblies := s.OfType("IfcElementAssembly")
	require.Len(t, assemblies, 4)
	assert.Equal(t, "#1000", assemblies[0].ID)
	assert.Equal(t, "#3500", assemblies[3].ID)

	assert.Empty(t, s.OfType("IFCDOOR"))
}

func TestEntity_Attr(t *testing.T) {
	s := Build(ifctest.Branch)
	agg, _ := s.Get("#4541")

	v, ok := agg.Attr(4)
	require.True(t, ok)
	ref, _ := v.Ref()
	assert.Equal(t, "#4530", ref)

	_, ok = agg.Attr(6)
	assert.False(t, ok)
	_, ok = agg.Attr(-1)
	assert.False(t, ok)
}
