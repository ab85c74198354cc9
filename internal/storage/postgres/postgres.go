package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/14kear/siteVoting/internal/storage"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sql.DB
}

func New(postgresURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Проверим соединение
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Read(ctx context.Context, rng string) ([][]string, error) {
	const op = "storage.postgres.Read"

	rows, err := s.db.QueryContext(ctx, "SELECT cells FROM ledger_rows WHERE sheet = $1 ORDER BY id", storage.SheetName(rng))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var cells pq.StringArray
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, []string(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Storage) Append(ctx context.Context, rng string, rows [][]string) error {
	const op = "storage.postgres.Append"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO ledger_rows(sheet, cells) VALUES($1, $2)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	sheet := storage.SheetName(rng)
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, sheet, pq.Array(row)); err != nil {
			return fmt.Errorf("%s: %w", op, mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AppendVote держит advisory lock на группу до конца транзакции: подсчёт
// голосов группы и вставка идут без гонки. Уникальность email обеспечивает
// индекс idx_ledger_votes_email.
func (s *Storage) AppendVote(ctx context.Context, rng string, row []string, groupCap int) error {
	const op = "storage.postgres.AppendVote"

	if len(row) < 2 {
		return fmt.Errorf("%s: vote row must hold email and group", op)
	}
	sheet := storage.SheetName(rng)
	group, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	lockKey := fmt.Sprintf("%s:group:%d", sheet, group)
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if groupCap > 0 {
		n, err := countGroup(ctx, tx, sheet, group)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n >= groupCap {
			return fmt.Errorf("%s: %w", op, storage.ErrGroupFull)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO ledger_rows(sheet, cells) VALUES($1, $2)", sheet, pq.Array(row)); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Clear(ctx context.Context, rng string) error {
	const op = "storage.postgres.Clear"

	if _, err := s.db.ExecContext(ctx, "DELETE FROM ledger_rows WHERE sheet = $1", storage.SheetName(rng)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// countGroup parses the group cell in Go: rows written by other clients may
// carry "01" or padded values.
func countGroup(ctx context.Context, tx *sql.Tx, sheet string, group int) (int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT COALESCE(cells[2], '') FROM ledger_rows WHERE sheet = $1", sheet)
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

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return storage.ErrEmailAlreadyVoted
	}
	return err
}
