package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVocabularyEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   VocabularyEntry
		wantErr error
	}{
		{"valid", VocabularyEntry{StudentID: 1, Word: "cat"}, nil},
		{"missing student", VocabularyEntry{Word: "cat"}, ErrInvalidID},
		{"blank word", VocabularyEntry{StudentID: 1, Word: "  "}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLessonDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2026-03-02 03:00 in UTC+9 is still March 1st in UTC.
	got := LessonDateOf(time.Date(2026, 3, 2, 3, 0, 0, 0, loc))
	assert.Equal(t, "2026-03-01", got)
}
