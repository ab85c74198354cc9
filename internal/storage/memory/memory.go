// Package memory is an in-process ledger for local runs and tests.
package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/14kear/siteVoting/internal/storage"
)

type Storage struct {
	mu     sync.RWMutex
	sheets map[string][][]string
}

func New() *Storage {
	return &Storage{sheets: make(map[string][][]string)}
}

func (s *Storage) Read(_ context.Context, rng string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.sheets[storage.SheetName(rng)]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (s *Storage) Append(_ context.Context, rng string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(storage.SheetName(rng), rows...)
	return nil
}

// AppendVote checks the email and the group counter under the write lock,
// so two concurrent voters can not both pass.
func (s *Storage) AppendVote(_ context.Context, rng string, row []string, groupCap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet := storage.SheetName(rng)
	email, group := voteKey(row)

	inGroup := 0
	for _, r := range s.sheets[sheet] {
		e, g := voteKey(r)
		if strings.EqualFold(e, email) {
			return storage.ErrEmailAlreadyVoted
		}
		if g == group {
			inGroup++
		}
	}
	if groupCap > 0 && inGroup >= groupCap {
		return storage.ErrGroupFull
	}

	s.appendLocked(sheet, row)
	return nil
}

func (s *Storage) Clear(_ context.Context, rng string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sheets, storage.SheetName(rng))
	return nil
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) appendLocked(sheet string, rows ...[]string) {
	for _, r := range rows {
		s.sheets[sheet] = append(s.sheets[sheet], append([]string(nil), r...))
	}
}

func voteKey(row []string) (string, int) {
	var email string
	group := -1
	if len(row) > 0 {
		email = strings.TrimSpace(row[0])
	}
	if len(row) > 1 {
		if g, err := strconv.Atoi(strings.TrimSpace(row[1])); err == nil {
			group = g
		}
	}
	return email, group
}
