package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

type vocabularyRequest struct {
	StudentID    number `json:"student_id"`
	StudentIDAlt number `json:"studentId"`
	Word         text   `json:"word"`
	Translation  text   `json:"translation"`
	LessonDate   text   `json:"lesson_date"`
}

func (s *Server) handleCreateVocabulary(w http.ResponseWriter, r *http.Request) {
	var req vocabularyRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	studentID := req.StudentID.or(req.StudentIDAlt)
	if !studentID.Set || req.Word.blank() {
		s.writeError(w, r, fmt.Errorf("%w: missing required fields: student_id and word", types.ErrInvalidInput))
		return
	}

	date := types.LessonDateOf(s.Now())
	if !req.LessonDate.blank() {
		d, err := time.Parse(types.LessonDateLayout, strings.TrimSpace(req.LessonDate.Value))
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: lesson_date must be YYYY-MM-DD", types.ErrInvalidInput))
			return
		}
		date = d.Format(types.LessonDateLayout)
	}

	entry := &types.VocabularyEntry{
		StudentID:   studentID.Value,
		Word:        strings.TrimSpace(req.Word.Value),
		Translation: req.Translation.ptr(),
		LessonDate:  date,
	}
	if entry.Translation != nil && strings.TrimSpace(*entry.Translation) == "" {
		entry.Translation = nil
	}
	ctx := r.Context()
	err := s.store.WithTx(ctx, func(tables types.Tables) error {
		if _, err := tables.Students().Get(ctx, entry.StudentID); err != nil {
			return err
		}
		_, err := tables.Vocabulary().Set(ctx, entry)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, success(entry))
}

func (s *Server) handleUpdateVocabulary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req vocabularyRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Word.blank() || req.Translation.blank() {
		s.writeError(w, r, fmt.Errorf("%w: missing required fields: word and translation", types.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	translation := strings.TrimSpace(req.Translation.Value)
	var entry *types.VocabularyEntry
	err = s.store.WithTx(ctx, func(tables types.Tables) error {
		if _, err := tables.Vocabulary().Set(ctx, &types.VocabularyEntry{
			ID:          id,
			Word:        strings.TrimSpace(req.Word.Value),
			Translation: &translation,
		}); err != nil {
			return err
		}
		var err error
		entry, err = tables.Vocabulary().Get(ctx, id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(entry))
}

func (s *Server) handleDeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Vocabulary().Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(nil))
}
