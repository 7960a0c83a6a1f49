package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mesh-intelligence/tutor/internal/ledger"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// studentRequest is the body of POST and PATCH /students. links may be a
// JSON array of {name,url} or a string holding one; google_docs_links is
// the older name of the same field.
type studentRequest struct {
	Name            text            `json:"name"`
	Age             text            `json:"age"`
	Grade           text            `json:"grade"`
	Occupation      text            `json:"occupation"`
	DaysAndTimes    text            `json:"days_and_times"`
	ESLLevel        text            `json:"esl_level"`
	TeacherComments text            `json:"teacher_comments"`
	Links           json.RawMessage `json:"links"`
	LegacyLinks     json.RawMessage `json:"google_docs_links"`
}

// patch converts the request, validating and canonicalizing links.
func (req *studentRequest) patch() (types.StudentPatch, error) {
	p := types.StudentPatch{
		Name:            req.Name.ptr(),
		Age:             req.Age.ptr(),
		Grade:           req.Grade.ptr(),
		Occupation:      req.Occupation.ptr(),
		DaysAndTimes:    req.DaysAndTimes.ptr(),
		ESLLevel:        req.ESLLevel.ptr(),
		TeacherComments: req.TeacherComments.ptr(),
	}
	raw := req.Links
	if len(raw) == 0 {
		raw = req.LegacyLinks
	}
	if len(raw) > 0 {
		blob, err := canonicalLinks(raw)
		if err != nil {
			return types.StudentPatch{}, err
		}
		p.Links = &blob
	}
	return p, nil
}

// canonicalLinks accepts a links value from a request body and returns it
// in the stored encoding. null and "" clear the list.
func canonicalLinks(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: links: %v", types.ErrInvalidInput, err)
		}
		if strings.TrimSpace(s) == "" {
			return "", nil
		}
	}
	links, err := ledger.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: links must be a list of {name, url}: %v", types.ErrInvalidInput, err)
	}
	return ledger.Encode(links)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	filter := types.Filter{}
	if name := r.URL.Query().Get("name"); name != "" {
		filter["name"] = name
	}
	students, err := s.store.Students().Fetch(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(students))
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name.blank() {
		s.writeError(w, r, fmt.Errorf("%w: student name is required", types.ErrInvalidInput))
		return
	}
	p, err := req.patch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	student := &types.Student{}
	p.Apply(student)
	if _, err := s.store.Students().Set(r.Context(), student); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, success(student))
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req studentRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := s.store.Students().Update(ctx, id, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	student, err := s.store.Students().Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(student))
}

func (s *Server) handleStudentVocabulary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err := s.store.Students().Get(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.store.Vocabulary().Fetch(ctx, types.Filter{"student_id": id})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(entries))
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	links, err := s.ledger.Links(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success(links))
}

func (s *Server) handleAppendLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Name text `json:"name"`
		URL  text `json:"url"`
	}
	if err := decodeBody(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	link := types.Link{Name: strings.TrimSpace(req.Name.Value), URL: strings.TrimSpace(req.URL.Value)}
	if err := link.Validate(); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: name and url are required", err))
		return
	}
	links, err := s.ledger.AppendLink(r.Context(), id, link)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, success(links))
}
