// Package sqlite exposes the SQLite storage backend to programs outside this
// module.
package sqlite

import (
	"github.com/mesh-intelligence/tutor/internal/sqlite"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".tutor-db",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
