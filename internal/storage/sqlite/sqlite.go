// Package sqlite keeps the ledger in a single SQLite file (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/14kear/siteVoting/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_rows (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    sheet      TEXT     NOT NULL,
    cells      TEXT     NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ledger_rows_sheet ON ledger_rows (sheet, id);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_votes_email
    ON ledger_rows (lower(json_extract(cells, '$[0]'))) WHERE sheet = 'Votes';
`

type Storage struct {
	db *sql.DB
}

// New открывает базу и создаёт схему, если её ещё нет.
// path может быть ":memory:".
func New(path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// один писатель: транзакции AppendVote выполняются строго по очереди
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: create schema: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Read(ctx context.Context, rng string) ([][]string, error) {
	const op = "storage.sqlite.Read"

	rows, err := s.db.QueryContext(ctx, "SELECT cells FROM ledger_rows WHERE sheet = ? ORDER BY id", storage.SheetName(rng))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("%s: decode cells: %w", op, err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) Append(ctx context.Context, rng string, rows [][]string) error {
	const op = "storage.sqlite.Append"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	sheet := storage.SheetName(rng)
	for _, row := range rows {
		if err := insert(ctx, tx, sheet, row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) AppendVote(ctx context.Context, rng string, row []string, groupCap int) error {
	const op = "storage.sqlite.AppendVote"

	if len(row) < 2 {
		return fmt.Errorf("%s: vote row must hold email and group", op)
	}
	group, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sheet := storage.SheetName(rng)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if groupCap > 0 {
		n, err := countGroup(ctx, tx, sheet, group)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n >= groupCap {
			return fmt.Errorf("%s: %w", op, storage.ErrGroupFull)
		}
	}

	if err := insert(ctx, tx, sheet, row); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context, rng string) error {
	const op = "storage.sqlite.Clear"

	if _, err := s.db.ExecContext(ctx, "DELETE FROM ledger_rows WHERE sheet = ?", storage.SheetName(rng)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, sheet string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO ledger_rows(sheet, cells) VALUES(?, ?)", sheet, string(cells))
	return insertErr(err)
}

// insertErr переводит нарушение уникального индекса по email в ErrEmailAlreadyVoted.
// Драйвер отдаёт расширенные коды, остальные ограничения возвращаются как есть.
func insertErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return storage.ErrEmailAlreadyVoted
	}
	return err
}

func countGroup(ctx context.Context, tx *sql.Tx, sheet string, group int) (int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT COALESCE(json_extract(cells, '$[1]'), '') FROM ledger_rows WHERE sheet = ?", sheet)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, err
		}
		if g, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && g == group {
			n++
		}
	}
	return n, rows.Err()
}
