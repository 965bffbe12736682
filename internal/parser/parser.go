// Package parser loads a puzzle bundle from its on-disk XML description into
// a *puzzle.Puzzle, interning node IDs to dense indices in document order:
// a GRAPH of NODE elements plus zero or more HINT_LIST/COLUMN_HINT_LIST
// containers.
package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rawblock/tametsi-solver/internal/bitset"
	"github.com/rawblock/tametsi-solver/internal/puzzle"
)

type document struct {
	Title string  `xml:"TITLE"`
	Graph graphEl `xml:"GRAPH"`
	Hints []hintListEl `xml:"HINT_LIST"`
	ColumnHints []hintListEl `xml:"COLUMN_HINT_LIST"`
}

type graphEl struct {
	Nodes []nodeEl `xml:"NODE"`
}

type nodeEl struct {
	ID       string  `xml:"ID"`
	Edges    string  `xml:"EDGES"`
	HasMine  *struct{} `xml:"HAS_MINE"`
	Secret   *struct{} `xml:"SECRET"`
	Revealed *struct{} `xml:"REVEALED"`
	Pos      string  `xml:"POS"`
	Poly     polyEl  `xml:"POLY"`
}

type polyEl struct {
	Points string `xml:"POINTS"`
}

// hintListEl's entries are captured with xml:",any" rather than a fixed tag
// name: a HINT_LIST/COLUMN_HINT_LIST container's children carry the hint
// entries regardless of what the entry element itself is called, each
// expected to have an IDS child.
type hintListEl struct {
	Entries []hintEntryEl `xml:",any"`
}

type hintEntryEl struct {
	IDs string `xml:"IDS"`
}

// Parse reads an XML puzzle document from r and returns the fully validated
// Puzzle it describes.
func Parse(r io.Reader) (*puzzle.Puzzle, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parser: decode xml: %w", err)
	}
	return build(&doc)
}

// Title extracts just the TITLE element from r without building the full
// graph, for catalog listings that should not pay the cost of a full parse
// until a puzzle is actually loaded.
func Title(r io.Reader) (string, error) {
	var doc struct {
		Title string `xml:"TITLE"`
	}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("parser: decode xml: %w", err)
	}
	if doc.Title == "" {
		return "", fmt.Errorf("parser: no TITLE element in document")
	}
	return doc.Title, nil
}

func build(doc *document) (*puzzle.Puzzle, error) {
	n := len(doc.Graph.Nodes)

	idIndex := make(map[string]int, n)
	for i, node := range doc.Graph.Nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("parser: node %d has no ID", i)
		}
		if _, dup := idIndex[node.ID]; dup {
			return nil, fmt.Errorf("parser: duplicate node ID %q", node.ID)
		}
		idIndex[node.ID] = i
	}

	neighbors := make([]bitset.Set, n)
	var mines, unknowns, revealed bitset.Set
	layout := make([]puzzle.Layout, n)

	for i, node := range doc.Graph.Nodes {
		if node.HasMine != nil && node.Secret != nil {
			return nil, fmt.Errorf("parser: node %q has both HAS_MINE and SECRET", node.ID)
		}

		var nb bitset.Set
		if node.Edges != "" {
			for _, peer := range strings.Split(node.Edges, ",") {
				peer = strings.TrimSpace(peer)
				idx, ok := idIndex[peer]
				if !ok {
					return nil, fmt.Errorf("parser: node %q references unknown edge %q", node.ID, peer)
				}
				nb.Set(idx)
			}
		}
		neighbors[i] = nb

		if node.HasMine != nil {
			mines.Set(i)
		}
		if node.Secret != nil {
			unknowns.Set(i)
		}
		if node.Revealed != nil {
			revealed.Set(i)
		}

		x, y := parsePos(node.Pos)
		layout[i] = puzzle.Layout{X: x, Y: y, Polygon: parseFloats(node.Poly.Points)}
	}

	var hints []bitset.Set
	for _, list := range append(append([]hintListEl{}, doc.Hints...), doc.ColumnHints...) {
		for _, entry := range list.Entries {
			var bits bitset.Set
			for _, id := range strings.Split(entry.IDs, ",") {
				id = strings.TrimSpace(id)
				idx, ok := idIndex[id]
				if !ok {
					return nil, fmt.Errorf("parser: hint references unknown node %q", id)
				}
				bits.Set(idx)
			}
			hints = append(hints, bits)
		}
	}

	p, err := puzzle.New(neighbors, mines, unknowns, revealed, hints)
	if err != nil {
		return nil, err
	}
	p.Layout = layout
	return p, nil
}

func parsePos(raw string) (float64, float64) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	x, _ := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, _ := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return x, y
}

func parseFloats(raw string) []float64 {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
