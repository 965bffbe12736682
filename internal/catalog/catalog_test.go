package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const doc = `<PUZZLE><TITLE>%s</TITLE><GRAPH><NODE><ID>a</ID></NODE></GRAPH></PUZZLE>`

func writePuzzle(t *testing.T, dir, file, title string) {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(fmt.Sprintf(doc, title)), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func TestScanListsTitlesSorted(t *testing.T) {
	dir := t.TempDir()
	writePuzzle(t, dir, "b.xml", "Bravo")
	writePuzzle(t, dir, "a.xml", "Alpha")
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not xml"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(dir)
	listings, err := s.Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Name != "Alpha" || listings[1].Name != "Bravo" {
		t.Fatalf("expected sorted [Alpha, Bravo], got %v", listings)
	}

	p := s.Progress()
	if p.TotalFiles != 2 || p.Scanned != 2 || p.Failed != 0 || !p.Done {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestScanSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writePuzzle(t, dir, "good.xml", "Good")
	if err := os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<not-a-title/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewScanner(dir)
	listings, err := s.Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 || listings[0].Name != "Good" {
		t.Fatalf("expected only the good listing, got %v", listings)
	}
	if s.Progress().Failed != 1 {
		t.Fatalf("expected 1 failure recorded, got %d", s.Progress().Failed)
	}
}
