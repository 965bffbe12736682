// Package catalog discovers puzzle bundles on disk. A Scanner walks a
// directory of XML puzzle files, extracting just the TITLE element per file
// so a large catalog can be listed without fully parsing every graph, and
// tracks its own progress with atomic counters for concurrent-safe reads.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/rawblock/tametsi-solver/internal/parser"
	"github.com/rawblock/tametsi-solver/internal/puzzle"
)

// Listing names one puzzle file without having parsed its full graph.
type Listing struct {
	Name string
	Path string
}

// Read parses the full puzzle graph for this listing.
func (l Listing) Read() (*puzzle.Puzzle, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", l.Path, err)
	}
	defer f.Close()
	return parser.Parse(f)
}

// Progress reports a scan's current state, safe to read concurrently while
// Scan is still running in another goroutine.
type Progress struct {
	TotalFiles int64
	Scanned    int64
	Failed     int64
	Done       bool
}

// Scanner discovers puzzle files under a single directory (non-recursive).
type Scanner struct {
	dir string

	total   atomic.Int64
	scanned atomic.Int64
	failed  atomic.Int64
	done    atomic.Bool
}

// NewScanner returns a Scanner rooted at dir.
func NewScanner(dir string) *Scanner {
	return &Scanner{dir: dir}
}

// Progress returns the scanner's current progress.
func (s *Scanner) Progress() Progress {
	return Progress{
		TotalFiles: s.total.Load(),
		Scanned:    s.scanned.Load(),
		Failed:     s.failed.Load(),
		Done:       s.done.Load(),
	}
}

// Scan reads every .xml file directly inside the scanner's directory,
// extracting its title. It runs synchronously — callers that want to poll
// Progress concurrently should run Scan in its own goroutine. Listings are
// returned sorted by name for deterministic catalog ordering.
func (s *Scanner) Scan() ([]Listing, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %s: %w", s.dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".xml" {
			continue
		}
		candidates = append(candidates, entry.Name())
	}
	s.total.Store(int64(len(candidates)))
	defer s.done.Store(true)

	listings := make([]Listing, 0, len(candidates))
	for _, name := range candidates {
		path := filepath.Join(s.dir, name)
		title, err := titleOf(path)
		s.scanned.Add(1)
		if err != nil {
			s.failed.Add(1)
			continue
		}
		listings = append(listings, Listing{Name: title, Path: path})
	}

	sort.Slice(listings, func(i, j int) bool { return listings[i].Name < listings[j].Name })
	return listings, nil
}

func titleOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return parser.Title(f)
}
