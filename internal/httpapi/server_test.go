package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tutor/internal/catalog"
	"github.com/mesh-intelligence/tutor/internal/ledger"
	"github.com/mesh-intelligence/tutor/internal/lesson"
	"github.com/mesh-intelligence/tutor/internal/progress"
	"github.com/mesh-intelligence/tutor/internal/storetest"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler    http.Handler
	store      *storetest.Memory
	catalog    *catalog.Catalog
	lessonsDir string
	publicDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	store := storetest.NewMemory()
	l := ledger.New(store)
	lessonsDir := t.TempDir()
	gen, err := lesson.NewGenerator(cat, store, lesson.NewDirStore(lessonsDir, "/lessons"), l, nil)
	require.NoError(t, err)
	rec := progress.NewRecorder(store)
	rec.Now = func() time.Time { return fixedNow }

	srv := New(store, l, gen, rec, nil)
	srv.Now = func() time.Time { return fixedNow }

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<h1>tutor</h1>"), 0o644))

	return &testEnv{
		handler: srv.Handler(Options{
			APIPrefix:  "/api",
			LessonsURL: "/lessons",
			LessonsDir: lessonsDir,
			PublicDir:  publicDir,
		}),
		store:      store,
		catalog:    cat,
		lessonsDir: lessonsDir,
		publicDir:  publicDir,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) addStudent(t *testing.T, s types.Student) int64 {
	t.Helper()
	id, err := e.store.Students().Set(context.Background(), &s)
	require.NoError(t, err)
	return id
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

type dataBody[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, w).Error
}

func TestLessons(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Ana"})

	w := env.do(t, http.MethodPost, "/api/lessons", map[string]any{
		"studentId": id, "studentName": "Ana", "startWordRank": 3, "numWords": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode[lessonResponse](t, w)
	assert.Equal(t, "success", resp.Message)
	assert.True(t, strings.HasPrefix(resp.LessonURL, "/lessons/lesson-1-"), resp.LessonURL)

	_, err := os.Stat(filepath.Join(env.lessonsDir, path.Base(resp.LessonURL)))
	require.NoError(t, err)

	links, err := ledger.New(env.store).Links(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []types.Link{{Name: "Lesson 3-7", URL: resp.LessonURL}}, links)

	page := env.do(t, http.MethodGet, resp.LessonURL, nil)
	require.Equal(t, http.StatusOK, page.Code)
	for _, word := range mustSlice(t, env.catalog, 3, 5) {
		assert.Contains(t, page.Body.String(), fmt.Sprintf("value=%q", word))
	}
}

func mustSlice(t *testing.T, c *catalog.Catalog, start, n int) []string {
	t.Helper()
	words, err := c.Slice(start, n)
	require.NoError(t, err)
	return words
}

func TestLessons_FormStringsAndSnakeCase(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Ben"})

	w := env.do(t, http.MethodPost, "/api/lessons", map[string]any{
		"student_id": fmt.Sprint(id), "student_name": "Ben", "start_word_rank": "1", "num_words": "2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	links, err := ledger.New(env.store).Links(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Lesson 1-2", links[0].Name)
}

func TestLessons_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Cleo"})
	size := env.catalog.Size()

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing fields", map[string]any{"studentId": id}, http.StatusBadRequest},
		{"zero start", map[string]any{"studentId": id, "studentName": "Cleo", "startWordRank": 0, "numWords": 5}, http.StatusBadRequest},
		{"zero count", map[string]any{"studentId": id, "studentName": "Cleo", "startWordRank": 1, "numWords": 0}, http.StatusBadRequest},
		{"past end", map[string]any{"studentId": id, "studentName": "Cleo", "startWordRank": size, "numWords": 2}, http.StatusBadRequest},
		{"not a number", map[string]any{"studentId": id, "studentName": "Cleo", "startWordRank": "abc", "numWords": 2}, http.StatusBadRequest},
		{"bad json", "{", http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
		{"unknown student", map[string]any{"studentId": 999, "studentName": "X", "startWordRank": 1, "numWords": 2}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/lessons", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, errorMessage(t, w))
		})
	}

	entries, err := os.ReadDir(env.lessonsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	s, err := env.store.Students().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, s.Links)
}

func TestLessons_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Dana"})
	env.store.FailStudentUpdate = errors.Join(types.ErrStorageFailure, errors.New("disk I/O error"))

	w := env.do(t, http.MethodPost, "/api/lessons", map[string]any{
		"studentId": id, "studentName": "Dana", "startWordRank": 1, "numWords": 2,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "storage failure", errorMessage(t, w))
}

func TestLessons_MalformedLedger(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Eli", Links: "{broken"})

	w := env.do(t, http.MethodPost, "/api/lessons", map[string]any{
		"studentId": id, "studentName": "Eli", "startWordRank": 1, "numWords": 2,
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestProgress(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Fay"})

	w := env.do(t, http.MethodPost, "/api/progress", map[string]any{
		"studentId": id, "learnedWords": []string{"cat", "dog"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"success"}`, w.Body.String())

	entries, err := env.store.Vocabulary().Fetch(context.Background(), types.Filter{"student_id": id})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cat", entries[0].Word)
	assert.Equal(t, "dog", entries[1].Word)
	assert.Equal(t, "2024-05-01", entries[0].LessonDate)
	assert.Nil(t, entries[0].Translation)
}

func TestProgress_Validation(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Gus"})

	tests := []struct {
		name string
		body any
		want int
	}{
		{"empty list", map[string]any{"studentId": id, "learnedWords": []string{}}, http.StatusOK},
		{"missing words", map[string]any{"studentId": id}, http.StatusBadRequest},
		{"null words", map[string]any{"studentId": id, "learnedWords": nil}, http.StatusBadRequest},
		{"words not array", map[string]any{"studentId": id, "learnedWords": "cat"}, http.StatusBadRequest},
		{"non-string word", map[string]any{"studentId": id, "learnedWords": []any{"cat", 3}}, http.StatusBadRequest},
		{"blank word", map[string]any{"studentId": id, "learnedWords": []string{"cat", ""}}, http.StatusBadRequest},
		{"missing student", map[string]any{"learnedWords": []string{"cat"}}, http.StatusBadRequest},
		{"unknown student", map[string]any{"studentId": 999, "learnedWords": []string{"cat"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/progress", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Zero(t, env.store.VocabularyCount())
}

func TestProgress_StorageFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Hal"})
	env.store.FailVocabularyInsertAfter = 1

	w := env.do(t, http.MethodPost, "/api/progress", map[string]any{
		"studentId": id, "learnedWords": []string{"cat", "dog", "fish"},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, env.store.VocabularyCount())
}

func TestStudents_CreateListUpdate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/students", map[string]any{
		"name": "Ivy", "age": 31, "esl_level": "B1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dataBody[types.Student]](t, w).Data
	assert.NotZero(t, created.ID)
	assert.Equal(t, "31", created.Age)
	assert.Equal(t, "B1", created.ESLLevel)

	w = env.do(t, http.MethodPost, "/api/students", map[string]any{"age": "20"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/students/%d", created.ID), map[string]any{
		"teacher_comments": "great progress",
		"google_docs_links": `[{"name":"Week 1","url":"https://docs.example.com/1"}]`,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dataBody[types.Student]](t, w).Data
	assert.Equal(t, "great progress", updated.TeacherComments)
	assert.Equal(t, "Ivy", updated.Name)
	assert.Equal(t, `[{"name":"Week 1","url":"https://docs.example.com/1"}]`, updated.Links)

	w = env.do(t, http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dataBody[[]types.Student]](t, w).Data
	require.Len(t, list, 1)
	assert.Equal(t, updated, list[0])
}

// TestStudents_BrowserAddLinkKeepsLessons replays the browser's add-link
// flow: read google_docs_links from the list, append, PATCH the whole list.
func TestStudents_BrowserAddLinkKeepsLessons(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Yumi"})

	w := env.do(t, http.MethodPost, "/api/lessons", map[string]any{
		"student_id": fmt.Sprint(id), "student_name": "Yumi", "start_word_rank": "1", "num_words": "3",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lessonURL := decode[lessonResponse](t, w).LessonURL

	w = env.do(t, http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dataBody[[]map[string]any]](t, w).Data
	require.Len(t, list, 1)
	current, ok := list[0]["google_docs_links"].(string)
	require.True(t, ok, "google_docs_links missing from %v", list[0])

	var existing []types.Link
	require.NoError(t, json.Unmarshal([]byte(current), &existing))
	updated, err := json.Marshal(append(existing, types.Link{Name: "Doc", URL: "https://x"}))
	require.NoError(t, err)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/students/%d", id), map[string]any{
		"google_docs_links": string(updated),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/students/%d/links", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []types.Link{
		{Name: "Lesson 1-3", URL: lessonURL},
		{Name: "Doc", URL: "https://x"},
	}, decode[dataBody[[]types.Link]](t, w).Data)
}

func TestStudents_UpdateErrors(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Jo"})
	target := fmt.Sprintf("/api/students/%d", id)

	tests := []struct {
		name   string
		target string
		body   any
		want   int
	}{
		{"empty patch", target, map[string]any{}, http.StatusBadRequest},
		{"unknown column", target, map[string]any{"name = 'x'; --": "y"}, http.StatusBadRequest},
		{"blank name", target, map[string]any{"name": " "}, http.StatusBadRequest},
		{"bad links", target, map[string]any{"links": "Week 1 | https://x"}, http.StatusBadRequest},
		{"bad id", "/api/students/abc", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"unknown student", "/api/students/999", map[string]any{"name": "x"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	s, err := env.store.Students().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jo", s.Name)
}

func TestLinks(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Kim"})
	target := fmt.Sprintf("/api/students/%d/links", id)

	w := env.do(t, http.MethodPost, target, map[string]any{"name": "Week 1", "url": "https://docs.example.com/1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, target, map[string]any{"name": "Week 2", "url": "https://docs.example.com/2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	links := decode[dataBody[[]types.Link]](t, w).Data
	assert.Equal(t, []types.Link{
		{Name: "Week 1", URL: "https://docs.example.com/1"},
		{Name: "Week 2", URL: "https://docs.example.com/2"},
	}, links)

	w = env.do(t, http.MethodPost, target, map[string]any{"name": "No url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVocabulary(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Lee"})

	w := env.do(t, http.MethodPost, "/api/vocabulary", map[string]any{
		"student_id": id, "word": "apple", "translation": "manzana",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[dataBody[types.VocabularyEntry]](t, w).Data
	assert.Equal(t, "2024-05-01", entry.LessonDate)
	require.NotNil(t, entry.Translation)
	assert.Equal(t, "manzana", *entry.Translation)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/vocabulary/%d", entry.ID), map[string]any{
		"word": "apples", "translation": "manzanas",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[dataBody[types.VocabularyEntry]](t, w).Data
	assert.Equal(t, "apples", updated.Word)
	assert.Equal(t, "manzanas", *updated.Translation)
	assert.Equal(t, entry.LessonDate, updated.LessonDate)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/students/%d/vocabulary", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dataBody[[]types.VocabularyEntry]](t, w).Data
	require.Len(t, list, 1)
	assert.Equal(t, "apples", list[0].Word)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/vocabulary/%d", entry.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/vocabulary/%d", entry.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVocabulary_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.addStudent(t, types.Student{Name: "Max"})

	w := env.do(t, http.MethodPost, "/api/vocabulary", map[string]any{"student_id": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/vocabulary", map[string]any{"student_id": 999, "word": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/vocabulary", map[string]any{"student_id": id, "word": "x", "lesson_date": "May 1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/vocabulary/1", map[string]any{"word": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/vocabulary/999", map[string]any{"word": "x", "translation": "y"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/students/999/vocabulary", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Zero(t, env.store.VocabularyCount())
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tutor")

	w = env.do(t, http.MethodGet, "/lessons/missing.html", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLargeBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	big := `{"studentId":1,"learnedWords":["` + strings.Repeat("a", maxRequestBodySize) + `"]}`

	w := env.do(t, http.MethodPost, "/api/progress", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", types.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", types.ErrInvalidRange), http.StatusBadRequest},
		{types.ErrNoChanges, http.StatusBadRequest},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrMalformedLedger, http.StatusConflict},
		{fmt.Errorf("x: %w", types.ErrStorageFailure), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
