package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/tutor/internal/catalog"
	"github.com/mesh-intelligence/tutor/internal/ledger"
	"github.com/mesh-intelligence/tutor/internal/lesson"
	"github.com/mesh-intelligence/tutor/internal/progress"
	"github.com/mesh-intelligence/tutor/internal/sqlite"
)

// app is the set of components a command works with.
type app struct {
	settings  settings
	logger    *zap.Logger
	backend   *sqlite.Backend
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	generator *lesson.Generator
	recorder  *progress.Recorder
}

// attachBackend attaches a SQLite backend for the resolved data directory.
// The caller must call Detach.
func attachBackend(s settings) (*sqlite.Backend, error) {
	backend := sqlite.NewBackend()
	if err := backend.Attach(s.storeConfig()); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// openApp loads the configuration and wires every component. The caller
// must call close.
func openApp() (*app, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, userError("%w", err)
	}
	logger, err := newLogger(s.LogLevel, s.LogJSON)
	if err != nil {
		return nil, userError("%w", err)
	}

	cat, err := loadCatalog(s.CatalogPath)
	if err != nil {
		return nil, userError("%w", err)
	}

	backend, err := attachBackend(s)
	if err != nil {
		return nil, sysError("%w", err)
	}

	l := ledger.New(backend)
	l.TolerateMalformed = s.TolerateMalformed

	gen, err := lesson.NewGenerator(cat, backend, lesson.NewDirStore(s.LessonsDir, s.LessonsURL), l, logger)
	if err != nil {
		backend.Detach()
		return nil, sysError("%w", err)
	}
	gen.ProgressURL = normalizeURLPath(s.APIPrefix) + "/progress"

	return &app{
		settings:  s,
		logger:    logger,
		backend:   backend,
		catalog:   cat,
		ledger:    l,
		generator: gen,
		recorder:  progress.NewRecorder(backend),
	}, nil
}

func (a *app) close() {
	a.backend.Detach()
	_ = a.logger.Sync()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// normalizeURLPath returns p with a leading slash and no trailing one.
func normalizeURLPath(p string) string {
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	if p != "" && p[0] != '/' {
		p = "/" + p
	}
	return p
}
