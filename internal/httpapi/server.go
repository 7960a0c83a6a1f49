// Package httpapi exposes students, vocabulary, lesson generation and
// progress recording over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tutor/internal/ledger"
	"github.com/mesh-intelligence/tutor/internal/lesson"
	"github.com/mesh-intelligence/tutor/internal/progress"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// maxRequestBodySize limits request bodies.
const maxRequestBodySize = 1 << 20 // 1 MB

// Server holds the components the handlers call.
type Server struct {
	store    types.Store
	ledger   *ledger.Ledger
	lessons  *lesson.Generator
	progress *progress.Recorder
	logger   *zap.Logger

	// Now stamps vocabulary entries created without a lesson date.
	Now func() time.Time
}

// New returns a Server. A nil logger disables logging.
func New(store types.Store, l *ledger.Ledger, gen *lesson.Generator, rec *progress.Recorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:    store,
		ledger:   l,
		lessons:  gen,
		progress: rec,
		logger:   logger,
		Now:      time.Now,
	}
}

// RegisterHTTPHandlers registers the API handlers under prefix (e.g. "/api"):
//
//	GET    <prefix>/students
//	POST   <prefix>/students
//	PATCH  <prefix>/students/{id}
//	GET    <prefix>/students/{id}/vocabulary
//	GET    <prefix>/students/{id}/links
//	POST   <prefix>/students/{id}/links
//	POST   <prefix>/vocabulary
//	PUT    <prefix>/vocabulary/{id}
//	DELETE <prefix>/vocabulary/{id}
//	POST   <prefix>/lessons
//	POST   <prefix>/progress
func (s *Server) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	prefix = normalizePrefix(prefix)

	mux.HandleFunc("GET "+prefix+"/students", s.handleListStudents)
	mux.HandleFunc("POST "+prefix+"/students", s.handleCreateStudent)
	mux.HandleFunc("PATCH "+prefix+"/students/{id}", s.handleUpdateStudent)
	mux.HandleFunc("GET "+prefix+"/students/{id}/vocabulary", s.handleStudentVocabulary)
	mux.HandleFunc("GET "+prefix+"/students/{id}/links", s.handleListLinks)
	mux.HandleFunc("POST "+prefix+"/students/{id}/links", s.handleAppendLink)
	mux.HandleFunc("POST "+prefix+"/vocabulary", s.handleCreateVocabulary)
	mux.HandleFunc("PUT "+prefix+"/vocabulary/{id}", s.handleUpdateVocabulary)
	mux.HandleFunc("DELETE "+prefix+"/vocabulary/{id}", s.handleDeleteVocabulary)
	mux.HandleFunc("POST "+prefix+"/lessons", s.handleGenerateLesson)
	mux.HandleFunc("POST "+prefix+"/progress", s.handleRecordProgress)
}

// Options configures the full HTTP handler.
type Options struct {
	APIPrefix  string
	LessonsURL string
	LessonsDir string
	PublicDir  string
}

// Handler returns the API plus static file serving for lesson pages and the
// public directory, wrapped in request logging. Empty directories are not
// served.
func (s *Server) Handler(opts Options) http.Handler {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers(opts.APIPrefix, mux)

	if opts.LessonsDir != "" {
		base := normalizePrefix(opts.LessonsURL)
		if base == "" {
			base = "/lessons"
		}
		mux.Handle("GET "+base+"/", http.StripPrefix(base, http.FileServer(http.Dir(opts.LessonsDir))))
	}
	if opts.PublicDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.PublicDir)))
	}
	return s.logRequests(mux)
}

// normalizePrefix returns prefix with a leading slash and no trailing one.
// The root prefix becomes "".
func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// envelope is the success body shape: {"message":"success","data":...}.
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(data any) envelope {
	return envelope{Message: "success", Data: data}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Response is already partially written; nothing useful to do on error.
	_ = json.NewEncoder(w).Encode(v)
}
