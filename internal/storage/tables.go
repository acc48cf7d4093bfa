package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/sheets"
)

// ReadAll returns every row of table ordered by position. Gaps left by
// UpdateRange come back as empty rows.
func (s *SQLiteStorage) ReadAll(ctx context.Context, table string) ([][]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(table, "table"); err != nil {
		return nil, err
	}

	exists, err := s.tableExists(ctx, s.db, table)
	if err != nil {
		return nil, common.Unavailable("read "+table, err)
	}
	if !exists {
		return nil, common.Unavailable("read "+table, common.ErrTableMissing)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, cells FROM ledger_rows WHERE table_name = ? ORDER BY row_index`, table)
	if err != nil {
		return nil, common.Unavailable("read "+table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result [][]string
	for rows.Next() {
		var (
			index int
			cells string
		)
		if err := rows.Scan(&index, &cells); err != nil {
			return nil, common.Unavailable("read "+table, err)
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("failed to decode row %d of %s: %w", index, table, err)
		}
		for len(result) < index {
			result = append(result, []string{})
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Unavailable("read "+table, err)
	}

	if result == nil {
		result = [][]string{}
	}
	return result, nil
}

// AppendRow appends row after the last stored row, creating table on first use.
func (s *SQLiteStorage) AppendRow(ctx context.Context, table string, row []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(table, "table"); err != nil {
		return err
	}
	if err := validateRow(row); err != nil {
		return err
	}

	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureTable(ctx, tx, table); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(row_index), -1) + 1 FROM ledger_rows WHERE table_name = ?`, table).Scan(&next); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_rows (table_name, row_index, cells) VALUES (?, ?, ?)`, table, next, string(cells))
		return err
	})
	if err != nil {
		return common.Unavailable("append to "+table, err)
	}
	return nil
}

// UpdateRange overwrites the cells of an A1 range, growing rows as needed.
func (s *SQLiteStorage) UpdateRange(ctx context.Context, table, cellRange string, values [][]string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(table, "table"); err != nil {
		return err
	}
	from, to, err := sheets.ParseRange(cellRange)
	if err != nil {
		return err
	}
	if len(values) > to.Row-from.Row+1 {
		return fmt.Errorf("range %s is smaller than %d rows", cellRange, len(values))
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		exists, err := s.tableExists(ctx, tx, table)
		if err != nil {
			return err
		}
		if !exists {
			return common.ErrTableMissing
		}

		for i, line := range values {
			index := from.Row + i
			row, err := loadRow(ctx, tx, table, index)
			if err != nil {
				return err
			}
			for j, value := range line {
				col := from.Col + j
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = value
			}
			if err := storeRow(ctx, tx, table, index, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return common.Unavailable(fmt.Sprintf("update %s!%s", table, cellRange), err)
	}
	return nil
}

// CreateTable registers an empty table. Creating an existing table is a no-op.
func (s *SQLiteStorage) CreateTable(ctx context.Context, table string) error {
	if err := validateString(table, "table"); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return ensureTable(ctx, tx, table)
	})
}

// ReplaceTable swaps the whole content of table for rows.
func (s *SQLiteStorage) ReplaceTable(ctx context.Context, table string, rows [][]string) error {
	if err := validateString(table, "table"); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureTable(ctx, tx, table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = ?`, table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		for i, row := range rows {
			if err := storeRow(ctx, tx, table, i, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Tables lists the stored table names.
func (s *SQLiteStorage) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM ledger_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStorage) tableExists(ctx context.Context, q queryer, table string) (bool, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_tables WHERE name = ?`, table).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStorage) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureTable(ctx context.Context, tx *sql.Tx, table string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO ledger_tables (name) VALUES (?)`, table)
	return err
}

func loadRow(ctx context.Context, tx *sql.Tx, table string, index int) ([]string, error) {
	var cells string
	err := tx.QueryRowContext(ctx,
		`SELECT cells FROM ledger_rows WHERE table_name = ? AND row_index = ?`, table, index).Scan(&cells)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var row []string
	if err := json.Unmarshal([]byte(cells), &row); err != nil {
		return nil, fmt.Errorf("failed to decode row %d of %s: %w", index, table, err)
	}
	return row, nil
}

func storeRow(ctx context.Context, tx *sql.Tx, table string, index int, row []string) error {
	if row == nil {
		row = []string{}
	}
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_rows (table_name, row_index, cells) VALUES (?, ?, ?)
		ON CONFLICT(table_name, row_index) DO UPDATE SET cells = excluded.cells, updated_at = CURRENT_TIMESTAMP
	`, table, index, string(cells))
	return err
}
