// Package catalog holds the ranked word list lessons are cut from.
//
// The list is read once at startup, either from the embedded General
// Service List extract or from a CSV file named in the configuration, and
// is read-only afterwards. Ranks are 1-based in every exported method.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

//go:embed gsl.csv
var embeddedCSV []byte

// Catalog errors.
var (
	ErrEmpty     = errors.New("catalog has no words")
	ErrRankOrder = errors.New("catalog ranks must start at 1 and increase by 1")
	ErrBlankWord = errors.New("catalog word is blank")
)

// Catalog is an ordered, immutable word list. The zero value is an empty
// catalog; use Load, LoadFile or Default.
type Catalog struct {
	words []string
}

// Default returns the embedded word list, the first 629 ranks of the
// General Service List. Set catalog_path to load the full list.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(embeddedCSV))
}

// LoadFile reads a catalog from a CSV file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

// Load parses "rank,word" records. A leading header row whose first field
// is not a number is skipped, as are records with fewer than two fields.
// Ranks must run 1, 2, 3, ... in file order.
func Load(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var words []string
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if first {
				first = false
				continue
			}
			return nil, fmt.Errorf("line %d: rank %q: %w", len(words)+1, rec[0], ErrRankOrder)
		}
		first = false
		if rank != len(words)+1 {
			return nil, fmt.Errorf("rank %d after %d: %w", rank, len(words), ErrRankOrder)
		}
		word := strings.TrimSpace(rec[1])
		if word == "" {
			return nil, fmt.Errorf("rank %d: %w", rank, ErrBlankWord)
		}
		words = append(words, word)
	}
	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return &Catalog{words: words}, nil
}

// Size returns the number of ranked words.
func (c *Catalog) Size() int {
	return len(c.words)
}

// WordAt returns the word at a 1-based rank. It panics when rank is out of
// range; callers validate with CheckRange first.
func (c *Catalog) WordAt(rank int) string {
	return c.words[rank-1]
}

// CheckRange reports ErrInvalidRange unless ranks
// [startRank, startRank+count-1] all lie inside the catalog.
func (c *Catalog) CheckRange(startRank, count int) error {
	if startRank < 1 {
		return fmt.Errorf("%w: start rank %d must be at least 1", types.ErrInvalidRange, startRank)
	}
	if count < 1 {
		return fmt.Errorf("%w: word count %d must be at least 1", types.ErrInvalidRange, count)
	}
	if end := startRank + count - 1; end > len(c.words) || end < startRank {
		return fmt.Errorf("%w: ranks %d-%d exceed catalog size %d",
			types.ErrInvalidRange, startRank, startRank+count-1, len(c.words))
	}
	return nil
}

// Slice returns a copy of the words at ranks [startRank, startRank+count-1]
// in rank order.
func (c *Catalog) Slice(startRank, count int) ([]string, error) {
	if err := c.CheckRange(startRank, count); err != nil {
		return nil, err
	}
	out := make([]string, count)
	copy(out, c.words[startRank-1:startRank-1+count])
	return out, nil
}
