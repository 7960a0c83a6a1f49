package types

import "context"

// Filter narrows a Fetch. Keys are table specific; an empty filter matches
// every row. Unsupported value types yield ErrInvalidFilter.
type Filter map[string]any

// StudentsTable provides CRUD access to students.
type StudentsTable interface {
	// Get returns the student with the given ID or ErrNotFound.
	Get(ctx context.Context, id int64) (*Student, error)

	// Set inserts s when s.ID is zero and overwrites the stored row
	// otherwise. Returns the ID used.
	Set(ctx context.Context, s *Student) (int64, error)

	// Update applies a partial update. Returns ErrNoChanges for an empty
	// patch and ErrNotFound when no student has the ID.
	Update(ctx context.Context, id int64, patch StudentPatch) error

	// Fetch returns students ordered by ID. Supported keys: name, limit,
	// offset.
	Fetch(ctx context.Context, filter Filter) ([]*Student, error)
}

// VocabularyTable provides CRUD access to vocabulary entries.
type VocabularyTable interface {
	// Get returns the entry with the given ID or ErrNotFound.
	Get(ctx context.Context, id int64) (*VocabularyEntry, error)

	// Set inserts e when e.ID is zero. Otherwise it updates the word and
	// translation of the stored entry, returning ErrNotFound if absent.
	Set(ctx context.Context, e *VocabularyEntry) (int64, error)

	// Delete removes the entry or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// Fetch returns entries ordered by ID. Supported keys: student_id,
	// lesson_date, limit, offset.
	Fetch(ctx context.Context, filter Filter) ([]*VocabularyEntry, error)
}

// Tables groups the table accessors. Inside Store.WithTx the same
// accessors run against the open transaction.
type Tables interface {
	Students() StudentsTable
	Vocabulary() VocabularyTable
}

// Store is the durable storage for students and vocabulary. Callers attach
// to a backend, use the tables, and detach when done.
type Store interface {
	Tables

	// Attach connects the Store to the backend described by config and
	// creates the DataDir if needed. Returns ErrAlreadyAttached when called
	// twice.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach every
	// table operation returns ErrStoreDetached.
	Detach() error

	// WithTx runs fn inside one transaction. The transaction commits when
	// fn returns nil and rolls back on error or panic.
	WithTx(ctx context.Context, fn func(Tables) error) error
}
