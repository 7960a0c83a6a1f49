package types

import (
	"strings"
	"time"
)

// LessonDateLayout is the storage format of VocabularyEntry.LessonDate.
const LessonDateLayout = "2006-01-02"

// VocabularyEntry is one word a student has met. Entries are not unique:
// recording the same word twice yields two entries.
type VocabularyEntry struct {
	ID          int64   `json:"id"`
	StudentID   int64   `json:"student_id"`
	Word        string  `json:"word"`
	Translation *string `json:"translation"`
	LessonDate  string  `json:"lesson_date"`
}

// Validate checks the fields every stored entry must carry.
func (v *VocabularyEntry) Validate() error {
	if v.StudentID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(v.Word) == "" {
		return ErrInvalidInput
	}
	return nil
}

// LessonDateOf formats t as a lesson date in UTC.
func LessonDateOf(t time.Time) string {
	return t.UTC().Format(LessonDateLayout)
}
