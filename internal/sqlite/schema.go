package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema DDL. Statements are idempotent so Attach can run them against an
// existing database.
const (
	createStudents = `CREATE TABLE IF NOT EXISTS students (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    age TEXT,
    grade TEXT,
    occupation TEXT,
    days_and_times TEXT,
    esl_level TEXT,
    teacher_comments TEXT,
    links TEXT
);`

	createVocabulary = `CREATE TABLE IF NOT EXISTS vocabulary (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id INTEGER NOT NULL,
    word TEXT NOT NULL,
    translation TEXT,
    lesson_date DATE,
    FOREIGN KEY (student_id) REFERENCES students (id)
);`
)

// Index DDL for common queries.
const (
	idxVocabularyStudent = `CREATE INDEX IF NOT EXISTS idx_vocabulary_student ON vocabulary(student_id);`
	idxVocabularyDate    = `CREATE INDEX IF NOT EXISTS idx_vocabulary_date ON vocabulary(student_id, lesson_date);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createStudents,
	createVocabulary,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxVocabularyStudent,
	idxVocabularyDate,
}

// legacyLinksColumn is the column name databases created by earlier
// releases used for the link list.
const legacyLinksColumn = "google_docs_links"

// applySchema creates missing tables and indexes, first renaming the legacy
// link column so existing rows keep their links.
func applySchema(ctx context.Context, db *sql.DB) error {
	if err := renameLegacyLinksColumn(ctx, db); err != nil {
		return err
	}
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

func renameLegacyLinksColumn(ctx context.Context, db *sql.DB) error {
	cols, err := tableColumns(ctx, db, "students")
	if err != nil {
		return err
	}
	if cols[legacyLinksColumn] && !cols["links"] {
		if _, err := db.ExecContext(ctx,
			"ALTER TABLE students RENAME COLUMN "+legacyLinksColumn+" TO links"); err != nil {
			return fmt.Errorf("renaming %s: %w", legacyLinksColumn, err)
		}
	}
	return nil
}

// tableColumns returns the column names of table, or an empty set when the
// table does not exist yet.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
