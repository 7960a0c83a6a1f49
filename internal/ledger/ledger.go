package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Ledger appends to and reads students' link lists.
type Ledger struct {
	store types.Store

	// TolerateMalformed makes AppendLink replace an unparseable stored list
	// with a fresh one instead of failing with ErrMalformedLedger. The old
	// contents are lost when this is set.
	TolerateMalformed bool
}

// New returns a Ledger backed by store.
func New(store types.Store) *Ledger {
	return &Ledger{store: store}
}

// Links returns the decoded link list of a student.
func (l *Ledger) Links(ctx context.Context, studentID int64) ([]types.Link, error) {
	s, err := l.store.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	links, err := Decode(s.Links)
	if err != nil {
		return nil, fmt.Errorf("student %d: %w", studentID, err)
	}
	return links, nil
}

// AppendLink adds link to the end of the student's list and returns the
// new list. The read and the write run in one transaction. When the stored
// list is malformed the call fails with ErrMalformedLedger and the stored
// blob is left as it was, unless TolerateMalformed is set.
func (l *Ledger) AppendLink(ctx context.Context, studentID int64, link types.Link) ([]types.Link, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}

	var out []types.Link
	err := l.store.WithTx(ctx, func(tables types.Tables) error {
		var err error
		out, err = appendLink(ctx, tables.Students(), studentID, link, l.TolerateMalformed)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// appendLink does the read-modify-write against an already scoped table.
func appendLink(ctx context.Context, students types.StudentsTable, studentID int64, link types.Link, tolerate bool) ([]types.Link, error) {
	s, err := students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	links, err := Decode(s.Links)
	if err != nil {
		if !tolerate || !errors.Is(err, types.ErrMalformedLedger) {
			return nil, fmt.Errorf("student %d: %w", studentID, err)
		}
		links = []types.Link{}
	}
	links = append(links, link)

	blob, err := Encode(links)
	if err != nil {
		return nil, err
	}
	if err := students.Update(ctx, studentID, types.StudentPatch{Links: &blob}); err != nil {
		return nil, err
	}
	return links, nil
}

// NormalizeReport summarizes a NormalizeAll run.
type NormalizeReport struct {
	Scanned   int
	Converted []int64
	Malformed []int64
}

// NormalizeAll rewrites every student's link list in the canonical
// encoding. Students whose lists parse in neither format are reported in
// Malformed and left untouched. All rewrites commit together.
func (l *Ledger) NormalizeAll(ctx context.Context) (*NormalizeReport, error) {
	report := &NormalizeReport{}
	err := l.store.WithTx(ctx, func(tables types.Tables) error {
		students, err := tables.Students().Fetch(ctx, nil)
		if err != nil {
			return err
		}
		for _, s := range students {
			report.Scanned++
			blob, changed, err := Normalize(s.Links)
			if err != nil {
				report.Malformed = append(report.Malformed, s.ID)
				continue
			}
			if !changed {
				continue
			}
			if err := tables.Students().Update(ctx, s.ID, types.StudentPatch{Links: &blob}); err != nil {
				return err
			}
			report.Converted = append(report.Converted, s.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
