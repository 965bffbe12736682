package parser

import (
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0"?>
<PUZZLE>
  <TITLE>Three In A Row</TITLE>
  <GRAPH>
    <NODE><ID>a</ID><EDGES>b</EDGES><HAS_MINE/><POS>0,0</POS></NODE>
    <NODE><ID>b</ID><EDGES>a,c</EDGES></NODE>
    <NODE><ID>c</ID><EDGES>b</EDGES></NODE>
  </GRAPH>
  <HINT_LIST>
    <HINT><IDS>a,b,c</IDS></HINT>
  </HINT_LIST>
</PUZZLE>`

const oddHintTagDoc = `<?xml version="1.0"?>
<PUZZLE>
  <TITLE>Odd Hint Tag</TITLE>
  <GRAPH>
    <NODE><ID>a</ID><EDGES>b</EDGES></NODE>
    <NODE><ID>b</ID><EDGES>a</EDGES></NODE>
  </GRAPH>
  <HINT_LIST>
    <ROW_HINT><IDS>a,b</IDS></ROW_HINT>
  </HINT_LIST>
</PUZZLE>`

const conflictingDoc = `<?xml version="1.0"?>
<PUZZLE>
  <TITLE>Bad</TITLE>
  <GRAPH>
    <NODE><ID>a</ID><HAS_MINE/><SECRET/></NODE>
  </GRAPH>
</PUZZLE>`

func newReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestParseRoundTrip(t *testing.T) {
	p, err := Parse(newReader(sampleDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.N != 3 {
		t.Fatalf("expected N=3, got %d", p.N)
	}
	if !p.Mines.Test(0) || p.Mines.PopCount() != 1 {
		t.Fatalf("expected exactly cell 0 to be a mine, got %v", p.Mines.Bits())
	}
	if len(p.Hints) != 1 || p.Hints[0] != p.Universe {
		t.Fatalf("expected a single hint covering the universe, got %v", p.Hints)
	}
	if !p.Neighbors[0].Test(1) || !p.Neighbors[1].Test(0) || !p.Neighbors[1].Test(2) {
		t.Fatalf("unexpected neighbor graph: %v", p.Neighbors)
	}
	if p.Layout[0].X != 0 || p.Layout[0].Y != 0 {
		t.Fatalf("expected node a at origin, got %+v", p.Layout[0])
	}
}

func TestParseHintEntryIsTagNameAgnostic(t *testing.T) {
	p, err := Parse(newReader(oddHintTagDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Hints) != 1 {
		t.Fatalf("expected a hint entry named ROW_HINT to still be picked up, got %v", p.Hints)
	}
	if p.Hints[0] != p.Universe {
		t.Fatalf("expected the hint to cover both cells, got %v", p.Hints[0].Bits())
	}
}

func TestParseRejectsConflictingFlags(t *testing.T) {
	_, err := Parse(newReader(conflictingDoc))
	if err == nil {
		t.Fatal("expected an error for a node with both HAS_MINE and SECRET")
	}
}

func TestTitleWithoutFullParse(t *testing.T) {
	title, err := Title(newReader(sampleDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Three In A Row" {
		t.Fatalf("expected title %q, got %q", "Three In A Row", title)
	}
}

func TestParseRejectsUnknownEdge(t *testing.T) {
	doc := `<PUZZLE><TITLE>x</TITLE><GRAPH><NODE><ID>a</ID><EDGES>ghost</EDGES></NODE></GRAPH></PUZZLE>`
	_, err := Parse(newReader(doc))
	if err == nil {
		t.Fatal("expected an error for an edge referencing an unknown node")
	}
}
