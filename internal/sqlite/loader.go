// This file implements bulk loading of JSONL files into the database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/tutor/pkg/types"
)

// jsonlTableMapping maps JSONL files to tables and column lists. Students
// load before vocabulary so foreign keys resolve.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{StudentsFile, "students", []string{"id", "name", "age", "grade", "occupation", "days_and_times", "esl_level", "teacher_comments", "links"}},
	{VocabularyFile, "vocabulary", []string{"id", "student_id", "word", "translation", "lesson_date"}},
}

// columnAliases lists older field names accepted for a column.
var columnAliases = map[string][]string{
	"links": {legacyLinksColumn},
}

// ImportStats counts the rows Import inserted and skipped per file.
type ImportStats struct {
	Inserted map[string]int
	Skipped  map[string]int
}

// Import reads students.jsonl and vocabulary.jsonl from dir and inserts
// their records. Missing files are skipped. Loading is transactional: all
// files load or nothing does. Records that are malformed or violate a
// constraint are skipped and counted. Fields not in the mapping are
// ignored; a record without an id gets a new one.
func (b *Backend) Import(ctx context.Context, dir string) (*ImportStats, error) {
	stats := &ImportStats{Inserted: map[string]int{}, Skipped: map[string]int{}}

	err := b.WithTx(ctx, func(tables types.Tables) error {
		tx := tables.(txTables).tx
		for _, mapping := range jsonlTableMapping {
			path := filepath.Join(dir, mapping.file)
			records, err := readJSONL(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return fmt.Errorf("reading %s: %w", mapping.file, err)
			}
			inserted, skipped, err := insertRecords(ctx, tx, mapping.table, mapping.columns, records)
			if err != nil {
				return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
			}
			stats.Inserted[mapping.file] = inserted
			stats.Skipped[mapping.file] = skipped
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// insertRecords inserts parsed JSONL records into a table. Only columns in
// the mapping are extracted. Nested JSON values (a links array, say) are
// re-serialized to a string.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, columns []string, records []json.RawMessage) (inserted, skipped int, err error) {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, 0, storageErr("preparing insert for "+table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			skipped++
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := lookupColumn(obj, col)
			if !ok {
				args[i] = nil
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = nil
					continue
				}
				args[i] = string(b)
			case float64:
				// JSON numbers decode as float64; store integral ones as integers.
				if v == math.Trunc(v) {
					args[i] = int64(v)
				} else {
					args[i] = v
				}
			default:
				args[i] = val
			}
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			skipped++
			continue
		}
		inserted++
	}
	return inserted, skipped, nil
}

// lookupColumn finds a column value by name or by one of its aliases.
func lookupColumn(obj map[string]any, col string) (any, bool) {
	if v, ok := obj[col]; ok {
		return v, true
	}
	for _, alias := range columnAliases[col] {
		if v, ok := obj[alias]; ok {
			return v, true
		}
	}
	return nil, false
}
