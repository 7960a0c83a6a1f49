// This file implements the students table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

var _ types.StudentsTable = (*studentsTable)(nil)

// studentsTable is bound either to the backend's shared connection or to an
// open transaction.
type studentsTable struct {
	backend *Backend
	tx      *sql.Tx
}

const selectStudent = `SELECT id, name, COALESCE(age, ''), COALESCE(grade, ''),
    COALESCE(occupation, ''), COALESCE(days_and_times, ''), COALESCE(esl_level, ''),
    COALESCE(teacher_comments, ''), COALESCE(links, '')
FROM students`

// Get retrieves a student by ID.
func (st *studentsTable) Get(ctx context.Context, id int64) (*types.Student, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	q, release, err := source(st.backend, st.tx)
	if err != nil {
		return nil, err
	}
	defer release()

	row := q.QueryRowContext(ctx, selectStudent+" WHERE id = ?", id)
	s, err := hydrateStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("getting student %d", id), err)
	}
	return s, nil
}

// Set inserts the student when s.ID is zero, otherwise upserts the row with
// that ID. On insert s.ID is set to the generated ID.
func (st *studentsTable) Set(ctx context.Context, s *types.Student) (int64, error) {
	if s == nil || s.ID < 0 {
		return 0, types.ErrInvalidID
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	q, release, err := source(st.backend, st.tx)
	if err != nil {
		return 0, err
	}
	defer release()

	if s.ID == 0 {
		res, err := q.ExecContext(ctx,
			`INSERT INTO students (name, age, grade, occupation, days_and_times, esl_level, teacher_comments, links)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Name, s.Age, s.Grade, s.Occupation, s.DaysAndTimes, s.ESLLevel, s.TeacherComments, s.Links)
		if err != nil {
			return 0, storageErr("inserting student", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, storageErr("reading student id", err)
		}
		s.ID = id
		return id, nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO students (id, name, age, grade, occupation, days_and_times, esl_level, teacher_comments, links)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			grade = excluded.grade,
			occupation = excluded.occupation,
			days_and_times = excluded.days_and_times,
			esl_level = excluded.esl_level,
			teacher_comments = excluded.teacher_comments,
			links = excluded.links`,
		s.ID, s.Name, s.Age, s.Grade, s.Occupation, s.DaysAndTimes, s.ESLLevel, s.TeacherComments, s.Links)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("upserting student %d", s.ID), err)
	}
	return s.ID, nil
}

// Update writes the non-nil fields of patch. Column names come from a fixed
// list, never from caller input.
func (st *studentsTable) Update(ctx context.Context, id int64, patch types.StudentPatch) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	if patch.Empty() {
		return types.ErrNoChanges
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.ErrInvalidName
	}

	fields := []struct {
		column string
		value  *string
	}{
		{"name", patch.Name},
		{"age", patch.Age},
		{"grade", patch.Grade},
		{"occupation", patch.Occupation},
		{"days_and_times", patch.DaysAndTimes},
		{"esl_level", patch.ESLLevel},
		{"teacher_comments", patch.TeacherComments},
		{"links", patch.Links},
	}
	var sets []string
	var args []any
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		sets = append(sets, f.column+" = ?")
		args = append(args, *f.value)
	}
	args = append(args, id)

	q, release, err := source(st.backend, st.tx)
	if err != nil {
		return err
	}
	defer release()

	res, err := q.ExecContext(ctx,
		"UPDATE students SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return storageErr(fmt.Sprintf("updating student %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("updating student %d", id), err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns students ordered by ID. Supported filter keys: name
// (exact match), limit, offset.
func (st *studentsTable) Fetch(ctx context.Context, filter types.Filter) ([]*types.Student, error) {
	query := selectStudent
	var args []any

	if v, ok := filter["name"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, types.ErrInvalidFilter
		}
		query += " WHERE name = ?"
		args = append(args, s)
	}
	query += " ORDER BY id"

	page, err := pagination(filter)
	if err != nil {
		return nil, err
	}
	query += page

	q, release, err := source(st.backend, st.tx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("fetching students", err)
	}
	defer rows.Close()

	results := []*types.Student{}
	for rows.Next() {
		s, err := hydrateStudent(rows)
		if err != nil {
			return nil, storageErr("hydrating student", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating students", err)
	}
	return results, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// hydrateStudent converts a row selected with selectStudent.
func hydrateStudent(row scanner) (*types.Student, error) {
	var s types.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Age, &s.Grade, &s.Occupation,
		&s.DaysAndTimes, &s.ESLLevel, &s.TeacherComments, &s.Links); err != nil {
		return nil, err
	}
	return &s, nil
}

// pagination turns the limit and offset filter keys into a SQL suffix.
func pagination(filter types.Filter) (string, error) {
	var clause string
	limit, hasLimit, err := filterInt(filter, "limit")
	if err != nil {
		return "", err
	}
	offset, hasOffset, err := filterInt(filter, "offset")
	if err != nil {
		return "", err
	}
	if hasLimit && limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", limit)
	}
	if hasOffset && offset > 0 {
		if clause == "" {
			clause = " LIMIT -1"
		}
		clause += fmt.Sprintf(" OFFSET %d", offset)
	}
	return clause, nil
}

// filterInt reads an integer filter value given as int or int64.
func filterInt(filter types.Filter, key string) (int64, bool, error) {
	v, ok := filter[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	default:
		return 0, false, types.ErrInvalidFilter
	}
}
