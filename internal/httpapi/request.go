package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// decodeBody reads a JSON object from the request into v. Unknown fields
// are rejected when strict is set. Every failure wraps ErrInvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", types.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", types.ErrInvalidInput, name)
	}
	return id, nil
}

// number is an integer field that also accepts a numeric string, as posted
// by HTML forms. An empty string or null leaves it unset.
type number struct {
	Set   bool
	Value int64
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		n.Set, n.Value = true, v
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return fmt.Errorf("%q is not an integer", s)
	}
	n.Set, n.Value = true, int64(f)
	return nil
}

// or returns n when set and alt otherwise.
func (n number) or(alt number) number {
	if n.Set {
		return n
	}
	return alt
}

// text is a string field that also accepts numbers and booleans. null sets
// it to the empty string.
type text struct {
	Set   bool
	Value string
}

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	t.Set = true
	switch {
	case string(b) == "null":
		t.Value = ""
	case len(b) > 0 && b[0] == '"':
		return json.Unmarshal(b, &t.Value)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("expected a string, got %s", b)
	default:
		t.Value = string(b)
	}
	return nil
}

func (t text) or(alt text) text {
	if t.Set {
		return t
	}
	return alt
}

// ptr returns a pointer to the value when set.
func (t text) ptr() *string {
	if !t.Set {
		return nil
	}
	v := t.Value
	return &v
}

// blank reports whether the field is unset or only whitespace.
func (t text) blank() bool {
	return strings.TrimSpace(t.Value) == ""
}
