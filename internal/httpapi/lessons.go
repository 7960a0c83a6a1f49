package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mesh-intelligence/tutor/internal/lesson"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// lessonRequest accepts camelCase keys and the snake_case keys older
// clients send.
type lessonRequest struct {
	StudentID        number `json:"studentId"`
	StudentName      text   `json:"studentName"`
	StartWordRank    number `json:"startWordRank"`
	NumWords         number `json:"numWords"`
	StudentIDAlt     number `json:"student_id"`
	StudentNameAlt   text   `json:"student_name"`
	StartWordRankAlt number `json:"start_word_rank"`
	NumWordsAlt      number `json:"num_words"`
}

type lessonResponse struct {
	Message   string `json:"message"`
	LessonURL string `json:"lessonUrl"`
}

func (s *Server) handleGenerateLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	studentID := req.StudentID.or(req.StudentIDAlt)
	name := req.StudentName.or(req.StudentNameAlt)
	start := req.StartWordRank.or(req.StartWordRankAlt)
	count := req.NumWords.or(req.NumWordsAlt)

	var missing []string
	if !studentID.Set {
		missing = append(missing, "studentId")
	}
	if name.blank() {
		missing = append(missing, "studentName")
	}
	if !start.Set {
		missing = append(missing, "startWordRank")
	}
	if !count.Set {
		missing = append(missing, "numWords")
	}
	if len(missing) > 0 {
		s.writeError(w, r, fmt.Errorf("%w: missing required fields: %s", types.ErrInvalidInput, strings.Join(missing, ", ")))
		return
	}

	res, err := s.lessons.Generate(r.Context(), lesson.Request{
		StudentID:   studentID.Value,
		StudentName: name.Value,
		StartRank:   int(start.Value),
		NumWords:    int(count.Value),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse{Message: "success", LessonURL: res.URL})
}

type progressRequest struct {
	StudentID       number          `json:"studentId"`
	StudentIDAlt    number          `json:"student_id"`
	LearnedWords    json.RawMessage `json:"learnedWords"`
	LearnedWordsAlt json.RawMessage `json:"learned_words"`
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	studentID := req.StudentID.or(req.StudentIDAlt)
	if !studentID.Set {
		s.writeError(w, r, fmt.Errorf("%w: studentId is required", types.ErrInvalidInput))
		return
	}
	words, err := learnedWords(req.LearnedWords, req.LearnedWordsAlt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.progress.RecordProgress(r.Context(), studentID.Value, words); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(nil))
}

// learnedWords requires an array of strings. An empty array yields an
// empty, non-nil slice.
func learnedWords(raw, alt json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		raw = alt
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: learnedWords is required", types.ErrInvalidInput)
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: learnedWords must be an array", types.ErrInvalidInput)
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, fmt.Errorf("%w: learnedWords must be an array of strings", types.ErrInvalidInput)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}
