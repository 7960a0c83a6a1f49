// This file implements the JSONL export of every student and vocabulary
// entry.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Export writes students.jsonl and vocabulary.jsonl into dir, one record per
// line. Each file is replaced atomically. Both files come from one
// transaction so they are consistent with each other.
func (b *Backend) Export(ctx context.Context, dir string) (students, vocabulary int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, err
	}

	var studentRecs, vocabRecs []json.RawMessage
	err = b.WithTx(ctx, func(tables types.Tables) error {
		all, err := tables.Students().Fetch(ctx, nil)
		if err != nil {
			return err
		}
		for _, s := range all {
			rec, err := json.Marshal(studentJSON{
				ID:              s.ID,
				Name:            s.Name,
				Age:             s.Age,
				Grade:           s.Grade,
				Occupation:      s.Occupation,
				DaysAndTimes:    s.DaysAndTimes,
				ESLLevel:        s.ESLLevel,
				TeacherComments: s.TeacherComments,
				Links:           s.Links,
			})
			if err != nil {
				return fmt.Errorf("encoding student %d: %w", s.ID, err)
			}
			studentRecs = append(studentRecs, rec)
		}

		entries, err := tables.Vocabulary().Fetch(ctx, nil)
		if err != nil {
			return err
		}
		for _, e := range entries {
			rec, err := json.Marshal(vocabularyJSON{
				ID:          e.ID,
				StudentID:   e.StudentID,
				Word:        e.Word,
				Translation: e.Translation,
				LessonDate:  e.LessonDate,
			})
			if err != nil {
				return fmt.Errorf("encoding vocabulary %d: %w", e.ID, err)
			}
			vocabRecs = append(vocabRecs, rec)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if err := writeJSONL(filepath.Join(dir, StudentsFile), studentRecs); err != nil {
		return 0, 0, fmt.Errorf("writing %s: %w", StudentsFile, err)
	}
	if err := writeJSONL(filepath.Join(dir, VocabularyFile), vocabRecs); err != nil {
		return 0, 0, fmt.Errorf("writing %s: %w", VocabularyFile, err)
	}
	return len(studentRecs), len(vocabRecs), nil
}
