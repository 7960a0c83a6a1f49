// This file implements the vocabulary table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

var _ types.VocabularyTable = (*vocabularyTable)(nil)

type vocabularyTable struct {
	backend *Backend
	tx      *sql.Tx
}

const selectVocabulary = `SELECT id, student_id, word, translation, COALESCE(lesson_date, '')
FROM vocabulary`

// Get retrieves a vocabulary entry by ID.
func (vt *vocabularyTable) Get(ctx context.Context, id int64) (*types.VocabularyEntry, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	q, release, err := source(vt.backend, vt.tx)
	if err != nil {
		return nil, err
	}
	defer release()

	e, err := hydrateVocabulary(q.QueryRowContext(ctx, selectVocabulary+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("getting vocabulary %d", id), err)
	}
	return e, nil
}

// Set inserts e when e.ID is zero; otherwise it updates the word and
// translation of the existing entry.
func (vt *vocabularyTable) Set(ctx context.Context, e *types.VocabularyEntry) (int64, error) {
	if e == nil || e.ID < 0 {
		return 0, types.ErrInvalidID
	}
	q, release, err := source(vt.backend, vt.tx)
	if err != nil {
		return 0, err
	}
	defer release()

	if e.ID != 0 {
		if strings.TrimSpace(e.Word) == "" {
			return 0, types.ErrInvalidInput
		}
		res, err := q.ExecContext(ctx,
			"UPDATE vocabulary SET word = ?, translation = ? WHERE id = ?",
			e.Word, nullString(e.Translation), e.ID)
		if err != nil {
			return 0, storageErr(fmt.Sprintf("updating vocabulary %d", e.ID), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, storageErr(fmt.Sprintf("updating vocabulary %d", e.ID), err)
		}
		if n == 0 {
			return 0, types.ErrNotFound
		}
		return e.ID, nil
	}

	if err := e.Validate(); err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO vocabulary (student_id, word, translation, lesson_date) VALUES (?, ?, ?, ?)",
		e.StudentID, e.Word, nullString(e.Translation), e.LessonDate)
	if err != nil {
		return 0, storageErr("inserting vocabulary", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("reading vocabulary id", err)
	}
	e.ID = id
	return id, nil
}

// Delete removes a vocabulary entry by ID.
func (vt *vocabularyTable) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	q, release, err := source(vt.backend, vt.tx)
	if err != nil {
		return err
	}
	defer release()

	res, err := q.ExecContext(ctx, "DELETE FROM vocabulary WHERE id = ?", id)
	if err != nil {
		return storageErr(fmt.Sprintf("deleting vocabulary %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("deleting vocabulary %d", id), err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns entries ordered by ID. Supported filter keys: student_id
// (int or int64), lesson_date (string), limit, offset.
func (vt *vocabularyTable) Fetch(ctx context.Context, filter types.Filter) ([]*types.VocabularyEntry, error) {
	query := selectVocabulary
	var conditions []string
	var args []any

	studentID, ok, err := filterInt(filter, "student_id")
	if err != nil {
		return nil, err
	}
	if ok {
		conditions = append(conditions, "student_id = ?")
		args = append(args, studentID)
	}
	if v, ok := filter["lesson_date"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		conditions = append(conditions, "lesson_date = ?")
		args = append(args, s)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	page, err := pagination(filter)
	if err != nil {
		return nil, err
	}
	query += page

	q, release, err := source(vt.backend, vt.tx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("fetching vocabulary", err)
	}
	defer rows.Close()

	results := []*types.VocabularyEntry{}
	for rows.Next() {
		e, err := hydrateVocabulary(rows)
		if err != nil {
			return nil, storageErr("hydrating vocabulary", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating vocabulary", err)
	}
	return results, nil
}

func hydrateVocabulary(row scanner) (*types.VocabularyEntry, error) {
	var e types.VocabularyEntry
	var translation sql.NullString
	if err := row.Scan(&e.ID, &e.StudentID, &e.Word, &translation, &e.LessonDate); err != nil {
		return nil, err
	}
	if translation.Valid {
		e.Translation = &translation.String
	}
	return &e, nil
}

// nullString maps a nil pointer to SQL NULL.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
