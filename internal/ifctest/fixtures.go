// Package ifctest holds IFC fixtures shared by tests.
package ifctest

// Branch is a minimal file with one BRANCH assembly (#4530, named B1)
// aggregating a fitting and a segment. The fitting carries its own
// property set.
const Branch = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('test.ifc','2024-01-01T00:00:00',(),(),'','','');
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1= IFCPROJECT('project_id',$,'Test Project',$,$,$,$,$,$);
#155= IFCPROPERTYSET('pset1',$,'Branch Properties',$,(#159,#163));
#159= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('BRANCH'),$);
#163= IFCPROPERTYSINGLEVALUE('NAME',$,IFCLABEL('B1'),$);
#209= IFCPROPERTYSET('pset2',$,'Weld Properties',$,(#210,#211));
#210= IFCPROPERTYSINGLEVALUE('Type',$,IFCLABEL('BUTT_WELD'),$);
#211= IFCPROPERTYSINGLEVALUE('Size',$,IFCREAL(6.0),$);
#278= IFCFLOWFITTING('fitting1',$,'WELD 1',$,$,$,$,$);
#279= IFCRELDEFINESBYPROPERTIES('rel2',$,$,$,(#278),#209);
#316= IFCFLOWSEGMENT('segment1',$,'TUBE 1',$,$,$,$,$);
#4530= IFCELEMENTASSEMBLY('assembly1',$,'BRANCH B1',$,$,$,$,$,$);
#4532= IFCRELDEFINESBYPROPERTIES('rel1',$,$,$,(#4530),#155);
#4541= IFCRELAGGREGATES('agg1',$,$,$,#4530,(#278,#316));
ENDSEC;
END-ISO-10303-21;
`

// BranchChunkIDs lists the identifiers of the #4530 chunk in traversal order.
var BranchChunkIDs = []string{
	"#4530", "#4532", "#155", "#159", "#163", "#4541",
	"#278", "#279", "#209", "#210", "#211",
	"#316",
}

// Multiple holds a PIPE (#1000, P1), a BRANCH (#2000, B1), an assembly
// without any properties (#3500) and a wall outside any assembly.
const Multiple = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('large.ifc','2024-01-01T00:00:00',(),(),'','','');
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1= IFCPROJECT('project_id',$,'Large Project',$,$,$,$,$,$);
#100= IFCPROPERTYSET('pset_pipe1',$,'Pipe Properties',$,(#101,#102));
#101= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('PIPE'),$);
#102= IFCPROPERTYSINGLEVALUE('NAME',$,IFCLABEL('P1'),$);
#200= IFCPROPERTYSET('pset_branch1',$,'Branch Properties',$,(#201,#202));
#201= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('BRANCH'),$);
#202= IFCPROPERTYSINGLEVALUE('NAME',$,IFCLABEL('B1'),$);
#300= IFCPROPERTYSET('pset_equi',$,'Equipment Properties',$,(#301));
#301= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('EQUI'),$);
#1000= IFCELEMENTASSEMBLY('pipe1',$,'PIPE P1',$,$,$,$,$,$);
#1001= IFCRELDEFINESBYPROPERTIES('rel_pipe1',$,$,$,(#1000),#100);
#2000= IFCELEMENTASSEMBLY('branch1',$,'BRANCH B1',$,$,$,$,$,$);
#2001= IFCRELDEFINESBYPROPERTIES('rel_branch1',$,$,$,(#2000),#200);
#3000= IFCWALL('wall1',$,'Wall 1',$,$,$,$,$);
#3100= IFCELEMENTASSEMBLY('equi1',$,'EQUI E1',$,$,$,$,$,$);
#3101= IFCRELDEFINESBYPROPERTIES('rel_equi1',$,$,$,(#3100),#300);
#3500= IFCELEMENTASSEMBLY('bare',$,'BARE',$,$,$,$,$,$);
ENDSEC;
END-ISO-10303-21;
`

// Placed is a PIPE assembly whose single child carries a local placement
// chain down to a cartesian point and two directions.
const Placed = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#10= IFCCARTESIANPOINT((1000.,2000.,350.));
#11= IFCDIRECTION((0.,0.,1.));
#12= IFCDIRECTION((1.,0.,0.));
#13= IFCAXIS2PLACEMENT3D(#10,#11,#12);
#14= IFCLOCALPLACEMENT($,#13);
#20= IFCCARTESIANPOINT((0.,0.,0.));
#21= IFCAXIS2PLACEMENT3D(#20,$,$);
#22= IFCLOCALPLACEMENT($,#21);
#50= IFCPROPERTYSET('pset',$,'Pipe Properties',$,(#51,#52));
#51= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('PIPE'),$);
#52= IFCPROPERTYSINGLEVALUE('Name',$,IFCTEXT('/P-100'),$);
#60= IFCELEMENTASSEMBLY('pipe',$,'PIPE',$,$,#22,$,$,$);
#61= IFCRELDEFINESBYPROPERTIES('relp',$,$,$,(#60),#50);
#70= IFCFLOWSEGMENT('tube',$,'TUBE',$,$,#14,$,$);
#71= IFCRELAGGREGATES('agg',$,$,$,#60,(#70));
ENDSEC;
END-ISO-10303-21;
`
