package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/serioese/servicekit/pkg/crud"
	"github.com/serioese/servicekit/pkg/errors"
)

// Table maps one database table with an auto-increment integer `id`
// primary key onto crud.Model. Only declared columns are read and
// written; unknown keys in a record are ignored.
type Table struct {
	db      *sql.DB
	name    string
	columns []string
}

// NewTable creates a Table for the given table name and writable columns.
// The id column is implicit and must not be listed.
func NewTable(db *sql.DB, name string, columns []string) *Table {
	return &Table{db: db, name: name, columns: columns}
}

// Name implements crud.Model
func (t *Table) Name() string {
	return t.name
}

// Get implements crud.Model. Unknown ids yield a NotFoundError.
func (t *Table) Get(ctx context.Context, id int64) (crud.Record, error) {
	cols := append([]string{"id"}, t.columns...)
	query := fmt.Sprintf("SELECT %s FROM `%s` WHERE id = ? LIMIT 1", quoteJoin(cols), t.name)

	rows, err := t.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.NewNotFoundError(t.name, id)
	}
	return records[0], nil
}

// Insert implements crud.Model. It persists the declared columns present
// in rec and returns the stored entity including its new id.
func (t *Table) Insert(ctx context.Context, rec crud.Record) (crud.Record, error) {
	cols := t.writableColumns(rec)
	if len(cols) == 0 {
		return nil, fmt.Errorf("no writable columns in record for table %s", t.name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)", t.name, quoteJoin(cols), placeholders)

	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		args = append(args, rec[col])
	}

	result, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return t.Get(ctx, id)
}

// Update implements crud.Model. It writes the declared columns present in
// rec and returns the stored entity.
func (t *Table) Update(ctx context.Context, id int64, rec crud.Record) (crud.Record, error) {
	cols := t.writableColumns(rec)
	if len(cols) == 0 {
		return t.Get(ctx, id)
	}

	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, fmt.Sprintf("`%s` = ?", col))
		args = append(args, rec[col])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE `%s` SET %s WHERE id = ?", t.name, strings.Join(sets, ", "))
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return t.Get(ctx, id)
}

// Delete implements crud.Model. Deleting an unknown id yields a
// NotFoundError.
func (t *Table) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM `%s` WHERE id = ?", t.name)
	result, err := t.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if affected == 0 {
		return errors.NewNotFoundError(t.name, id)
	}
	return nil
}

// writableColumns returns the declared columns present in rec, sorted for
// stable statements
func (t *Table) writableColumns(rec crud.Record) []string {
	cols := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		if _, ok := rec[col]; ok {
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

func quoteJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = "`" + col + "`"
	}
	return strings.Join(quoted, ", ")
}

// scanRecords scans SQL rows into record maps, converting byte slices to
// strings and id columns to int64
func scanRecords(rows *sql.Rows) ([]crud.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]crud.Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(crud.Record)
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = val
			}
		}
		results = append(results, record)
	}
	return results, rows.Err()
}
