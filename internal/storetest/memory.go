// Package storetest provides an in-memory types.Store for tests, with hooks
// to inject storage failures.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// Memory is an in-memory types.Store. WithTx works on a copy of the data
// and swaps it in on success, so a failed or panicking fn leaves nothing
// behind. Transactions are serialized.
type Memory struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	attached bool
	data     *dataset

	// FailStudentUpdate, when set, is returned by every StudentsTable.Update.
	FailStudentUpdate error
	// FailVocabularyInsertAfter makes the n+1th vocabulary insert fail with
	// ErrStorageFailure. Zero disables it.
	FailVocabularyInsertAfter int
}

type dataset struct {
	students      map[int64]types.Student
	vocabulary    map[int64]types.VocabularyEntry
	nextStudent   int64
	nextVocab     int64
	vocabInserted int
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		students:      make(map[int64]types.Student, len(d.students)),
		vocabulary:    make(map[int64]types.VocabularyEntry, len(d.vocabulary)),
		nextStudent:   d.nextStudent,
		nextVocab:     d.nextVocab,
		vocabInserted: d.vocabInserted,
	}
	for k, v := range d.students {
		c.students[k] = v
	}
	for k, v := range d.vocabulary {
		c.vocabulary[k] = v
	}
	return c
}

// NewMemory returns an attached, empty store.
func NewMemory() *Memory {
	return &Memory{
		attached: true,
		data: &dataset{
			students:   map[int64]types.Student{},
			vocabulary: map[int64]types.VocabularyEntry{},
		},
	}
}

// Attach re-attaches a detached store.
func (m *Memory) Attach(cfg types.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached {
		return types.ErrAlreadyAttached
	}
	m.attached = true
	return nil
}

// Detach marks the store detached.
func (m *Memory) Detach() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attached = false
	return nil
}

// Students returns a table that works directly on the committed data.
func (m *Memory) Students() types.StudentsTable { return &students{m: m} }

// Vocabulary returns a table that works directly on the committed data.
func (m *Memory) Vocabulary() types.VocabularyTable { return &vocabulary{m: m} }

// WithTx runs fn against a private copy of the data.
func (m *Memory) WithTx(ctx context.Context, fn func(types.Tables) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return types.ErrStoreDetached
	}
	work := m.data.clone()
	m.mu.Unlock()

	if err := fn(txTables{m: m, d: work}); err != nil {
		return err
	}

	m.mu.Lock()
	m.data = work
	m.mu.Unlock()
	return nil
}

// StudentCount returns the number of committed students.
func (m *Memory) StudentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.students)
}

// VocabularyCount returns the number of committed vocabulary entries.
func (m *Memory) VocabularyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.vocabulary)
}

type txTables struct {
	m *Memory
	d *dataset
}

func (t txTables) Students() types.StudentsTable   { return &students{m: t.m, d: t.d} }
func (t txTables) Vocabulary() types.VocabularyTable { return &vocabulary{m: t.m, d: t.d} }

// with runs fn on the transaction copy, or on the committed data under the
// store lock.
func (m *Memory) with(d *dataset, fn func(*dataset) error) error {
	if d != nil {
		return fn(d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.attached {
		return types.ErrStoreDetached
	}
	return fn(m.data)
}

type students struct {
	m *Memory
	d *dataset
}

func (s *students) Get(ctx context.Context, id int64) (*types.Student, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	var out *types.Student
	err := s.m.with(s.d, func(d *dataset) error {
		st, ok := d.students[id]
		if !ok {
			return types.ErrNotFound
		}
		out = &st
		return nil
	})
	return out, err
}

func (s *students) Set(ctx context.Context, st *types.Student) (int64, error) {
	if st == nil || st.ID < 0 {
		return 0, types.ErrInvalidID
	}
	if err := st.Validate(); err != nil {
		return 0, err
	}
	err := s.m.with(s.d, func(d *dataset) error {
		if st.ID == 0 {
			d.nextStudent++
			st.ID = d.nextStudent
		} else if st.ID > d.nextStudent {
			d.nextStudent = st.ID
		}
		d.students[st.ID] = *st
		return nil
	})
	return st.ID, err
}

func (s *students) Update(ctx context.Context, id int64, patch types.StudentPatch) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	if patch.Empty() {
		return types.ErrNoChanges
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.ErrInvalidName
	}
	if s.m.FailStudentUpdate != nil {
		return s.m.FailStudentUpdate
	}
	return s.m.with(s.d, func(d *dataset) error {
		st, ok := d.students[id]
		if !ok {
			return types.ErrNotFound
		}
		patch.Apply(&st)
		d.students[id] = st
		return nil
	})
}

func (s *students) Fetch(ctx context.Context, filter types.Filter) ([]*types.Student, error) {
	var name string
	var byName bool
	if v, ok := filter["name"]; ok {
		n, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		name, byName = n, true
	}
	out := []*types.Student{}
	err := s.m.with(s.d, func(d *dataset) error {
		for _, id := range sortedKeys(d.students) {
			st := d.students[id]
			if byName && st.Name != name {
				continue
			}
			out = append(out, &st)
		}
		return nil
	})
	return out, err
}

type vocabulary struct {
	m *Memory
	d *dataset
}

func (v *vocabulary) Get(ctx context.Context, id int64) (*types.VocabularyEntry, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	var out *types.VocabularyEntry
	err := v.m.with(v.d, func(d *dataset) error {
		e, ok := d.vocabulary[id]
		if !ok {
			return types.ErrNotFound
		}
		out = &e
		return nil
	})
	return out, err
}

func (v *vocabulary) Set(ctx context.Context, e *types.VocabularyEntry) (int64, error) {
	if e == nil || e.ID < 0 {
		return 0, types.ErrInvalidID
	}
	err := v.m.with(v.d, func(d *dataset) error {
		if e.ID != 0 {
			cur, ok := d.vocabulary[e.ID]
			if !ok {
				return types.ErrNotFound
			}
			cur.Word = e.Word
			cur.Translation = e.Translation
			d.vocabulary[e.ID] = cur
			return nil
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if _, ok := d.students[e.StudentID]; !ok {
			return fmt.Errorf("inserting vocabulary: %w: unknown student %d", types.ErrStorageFailure, e.StudentID)
		}
		if v.m.FailVocabularyInsertAfter > 0 && d.vocabInserted >= v.m.FailVocabularyInsertAfter {
			return fmt.Errorf("inserting vocabulary: %w: injected failure", types.ErrStorageFailure)
		}
		d.nextVocab++
		d.vocabInserted++
		e.ID = d.nextVocab
		d.vocabulary[e.ID] = *e
		return nil
	})
	return e.ID, err
}

func (v *vocabulary) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return v.m.with(v.d, func(d *dataset) error {
		if _, ok := d.vocabulary[id]; !ok {
			return types.ErrNotFound
		}
		delete(d.vocabulary, id)
		return nil
	})
}

func (v *vocabulary) Fetch(ctx context.Context, filter types.Filter) ([]*types.VocabularyEntry, error) {
	var studentID int64
	var byStudent bool
	if raw, ok := filter["student_id"]; ok {
		switch n := raw.(type) {
		case int:
			studentID = int64(n)
		case int64:
			studentID = n
		default:
			return nil, types.ErrInvalidFilter
		}
		byStudent = true
	}
	out := []*types.VocabularyEntry{}
	err := v.m.with(v.d, func(d *dataset) error {
		for _, id := range sortedKeys(d.vocabulary) {
			e := d.vocabulary[id]
			if byStudent && e.StudentID != studentID {
				continue
			}
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
