// Package progress records the words a student marked as learned.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Recorder turns learned-word submissions into vocabulary entries.
type Recorder struct {
	store types.Store

	// Now returns the current time. Entries are stamped with its UTC date.
	Now func() time.Time
}

// NewRecorder returns a Recorder using the wall clock.
func NewRecorder(store types.Store) *Recorder {
	return &Recorder{store: store, Now: time.Now}
}

// RecordProgress inserts one entry per word, in order, stamped with today's
// date and no translation. A nil words slice is ErrInvalidInput; an empty
// one is a no-op. All entries commit together or not at all.
func (r *Recorder) RecordProgress(ctx context.Context, studentID int64, words []string) ([]*types.VocabularyEntry, error) {
	if words == nil {
		return nil, fmt.Errorf("%w: learnedWords is required", types.ErrInvalidInput)
	}
	if studentID <= 0 {
		return nil, fmt.Errorf("%w: studentId must be a positive integer", types.ErrInvalidInput)
	}
	if len(words) == 0 {
		return []*types.VocabularyEntry{}, nil
	}

	date := types.LessonDateOf(r.Now())
	var entries []*types.VocabularyEntry
	err := r.store.WithTx(ctx, func(tables types.Tables) error {
		if _, err := tables.Students().Get(ctx, studentID); err != nil {
			return err
		}
		entries = make([]*types.VocabularyEntry, 0, len(words))
		for i, w := range words {
			w = strings.TrimSpace(w)
			if w == "" {
				return fmt.Errorf("%w: learnedWords[%d] is blank", types.ErrInvalidInput, i)
			}
			e := &types.VocabularyEntry{StudentID: studentID, Word: w, LessonDate: date}
			if _, err := tables.Vocabulary().Set(ctx, e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
