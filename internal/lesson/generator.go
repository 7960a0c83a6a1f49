package lesson

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tutor/internal/catalog"
	"github.com/mesh-intelligence/tutor/internal/ledger"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Request asks for a lesson covering NumWords catalog words starting at
// StartRank.
type Request struct {
	StudentID   int64
	StudentName string
	StartRank   int
	NumWords    int
}

// Result describes a generated lesson.
type Result struct {
	// URL is the address the page is served at.
	URL string
	// Name is the link name recorded in the student's list.
	Name  string
	Words []string
	// Links is the student's link list after the append.
	Links []types.Link
}

// Generator renders a lesson, stores the page and appends a link to it.
type Generator struct {
	catalog   *catalog.Catalog
	store     types.Store
	artifacts ArtifactStore
	ledger    *ledger.Ledger
	renderer  *Renderer
	logger    *zap.Logger

	// ProgressURL is embedded in every page as the submission target.
	ProgressURL string
}

// NewGenerator wires a Generator. A nil logger disables logging.
func NewGenerator(cat *catalog.Catalog, store types.Store, artifacts ArtifactStore, l *ledger.Ledger, logger *zap.Logger) (*Generator, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		catalog:     cat,
		store:       store,
		artifacts:   artifacts,
		ledger:      l,
		renderer:    r,
		logger:      logger,
		ProgressURL: "/api/progress",
	}, nil
}

// Generate validates req, renders and stores the page, then records the
// link. Nothing is written when validation fails. When the link cannot be
// recorded the stored page is left in place and the error is returned.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.StudentID <= 0 {
		return nil, fmt.Errorf("%w: studentId must be a positive integer", types.ErrInvalidInput)
	}
	name := strings.TrimSpace(req.StudentName)
	if name == "" {
		return nil, fmt.Errorf("%w: studentName is required", types.ErrInvalidInput)
	}
	words, err := g.catalog.Slice(req.StartRank, req.NumWords)
	if err != nil {
		return nil, err
	}
	if _, err := g.store.Students().Get(ctx, req.StudentID); err != nil {
		return nil, err
	}

	endRank := req.StartRank + req.NumWords - 1
	page, err := g.renderer.Render(Page{
		StudentID:   req.StudentID,
		StudentName: name,
		StartRank:   req.StartRank,
		EndRank:     endRank,
		Words:       words,
		ProgressURL: g.ProgressURL,
	})
	if err != nil {
		return nil, err
	}

	artifact, err := artifactName(req.StudentID)
	if err != nil {
		return nil, err
	}
	url, err := g.artifacts.Put(ctx, artifact, page)
	if err != nil {
		return nil, err
	}

	linkName := fmt.Sprintf("Lesson %d-%d", req.StartRank, endRank)
	links, err := g.ledger.AppendLink(ctx, req.StudentID, types.Link{Name: linkName, URL: url})
	if err != nil {
		g.logger.Warn("lesson stored but link not recorded",
			zap.Int64("student_id", req.StudentID),
			zap.String("url", url),
			zap.Error(err))
		return nil, err
	}

	g.logger.Info("lesson generated",
		zap.Int64("student_id", req.StudentID),
		zap.Int("start_rank", req.StartRank),
		zap.Int("end_rank", endRank),
		zap.String("url", url))

	return &Result{URL: url, Name: linkName, Words: words, Links: links}, nil
}

// artifactName is unique per student and generation: the UUID v7 carries
// the generation time.
func artifactName(studentID int64) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating artifact name: %w", err)
	}
	return fmt.Sprintf("lesson-%d-%s.html", studentID, id), nil
}
