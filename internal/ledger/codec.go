// Package ledger keeps each student's ordered list of lesson links.
//
// The list is stored in the student's links column as a JSON array of
// {"name","url"} objects. That is the only encoding the read path accepts.
// Older rows may still hold the newline-delimited "name | url" text format;
// Normalize and Ledger.NormalizeAll convert those once.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Encode serializes links in the canonical format. A nil list encodes as
// an empty array.
func Encode(links []types.Link) (string, error) {
	if links == nil {
		links = []types.Link{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encoding links: %w", err)
	}
	return string(b), nil
}

// Decode parses a canonical blob. An empty or blank blob, or JSON null, is
// an empty list. Anything that is not an array of objects with a non-empty
// name and url yields ErrMalformedLedger.
func Decode(blob string) ([]types.Link, error) {
	trimmed := strings.TrimSpace(blob)
	if trimmed == "" || trimmed == "null" {
		return []types.Link{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var links []types.Link
	if err := dec.Decode(&links); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedLedger, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after link list", types.ErrMalformedLedger)
	}
	for i, l := range links {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d needs a name and a url", types.ErrMalformedLedger, i)
		}
	}
	if links == nil {
		links = []types.Link{}
	}
	return links, nil
}

// ParseLegacy parses the newline-delimited "name | url" format. Blank lines
// are skipped. The url is whatever follows the last "|" on the line.
func ParseLegacy(text string) ([]types.Link, error) {
	links := []types.Link{}
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, "|")
		if sep < 0 {
			return nil, fmt.Errorf("%w: line %d has no \"|\" separator", types.ErrMalformedLedger, i+1)
		}
		l := types.Link{
			Name: strings.TrimSpace(line[:sep]),
			URL:  strings.TrimSpace(line[sep+1:]),
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d needs a name and a url", types.ErrMalformedLedger, i+1)
		}
		links = append(links, l)
	}
	return links, nil
}

// Normalize rewrites blob in the canonical encoding. changed reports
// whether the returned blob differs from the input. A blank blob stays
// blank. A blob that is neither canonical nor legacy yields
// ErrMalformedLedger.
func Normalize(blob string) (normalized string, changed bool, err error) {
	if strings.TrimSpace(blob) == "" {
		return blob, false, nil
	}

	links, err := Decode(blob)
	if err != nil {
		legacy, legacyErr := ParseLegacy(blob)
		if legacyErr != nil {
			if looksLikeJSON(blob) {
				return "", false, err
			}
			return "", false, legacyErr
		}
		links = legacy
	}

	out, err := Encode(links)
	if err != nil {
		return "", false, err
	}
	return out, out != blob, nil
}

// looksLikeJSON reports whether blob starts like a JSON array or object. It
// picks which parse error to report when neither format fits.
func looksLikeJSON(blob string) bool {
	b := bytes.TrimSpace([]byte(blob))
	return len(b) > 0 && (b[0] == '[' || b[0] == '{')
}
