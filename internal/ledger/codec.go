// Package ledger describes how voting state is laid out in the row ledger:
// range names and the row encoding of the configuration and of votes.
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
)

const (
	ConfigRange = "Config!A:C"
	VotesRange  = "Votes!A:C"
)

// EncodeConfig пишет время окончания в строку 0, далее по строке на сайт.
func EncodeConfig(cfg models.VotingConfig) [][]string {
	rows := make([][]string, 0, len(cfg.Sites)+1)
	rows = append(rows, []string{cfg.EndTime.UTC().Format(time.RFC3339)})
	for _, s := range cfg.Sites {
		rows = append(rows, []string{s.ID, s.Name, s.URL})
	}
	return rows
}

// DecodeConfig parses Config rows. Row 0 holds either an RFC 3339 end time
// or a countdown in seconds, which is resolved against now.
func DecodeConfig(rows [][]string, now time.Time) (models.VotingConfig, error) {
	const op = "ledger.DecodeConfig"

	if len(rows) == 0 || len(rows[0]) == 0 {
		return models.VotingConfig{}, fmt.Errorf("%s: %w: no header row", op, domainerrors.ErrMissingConfiguration)
	}

	end, err := parseEnd(rows[0][0], now)
	if err != nil {
		return models.VotingConfig{}, fmt.Errorf("%s: %w: %v", op, domainerrors.ErrMissingConfiguration, err)
	}

	cfg := models.VotingConfig{EndTime: end}
	for _, row := range rows[1:] {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		cfg.Sites = append(cfg.Sites, models.Site{ID: id, Name: cell(row, 1), URL: cell(row, 2)})
	}

	if len(cfg.Sites) == 0 {
		return models.VotingConfig{}, fmt.Errorf("%s: %w: no sites", op, domainerrors.ErrMissingConfiguration)
	}

	return cfg, nil
}

func parseEnd(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return now.Add(time.Duration(secs) * time.Second), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func EncodeVoter(v models.Voter) []string {
	return []string{v.Email, strconv.Itoa(v.Group), v.VotedFor}
}

// DecodeVoters returns every well-formed row with the email lowercased.
// Malformed rows are skipped and reported together in the returned error, so
// callers can log and go on.
func DecodeVoters(rows [][]string) ([]models.Voter, error) {
	voters := make([]models.Voter, 0, len(rows))
	var errs []error

	for i, row := range rows {
		email := strings.ToLower(cell(row, 0))
		if email == "" {
			errs = append(errs, fmt.Errorf("row %d: empty email", i))
			continue
		}

		group, err := ParseGroup(cell(row, 1))
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}

		voters = append(voters, models.Voter{Email: email, Group: group, VotedFor: cell(row, 2)})
	}

	return voters, errors.Join(errs...)
}

// ParseGroup понимает номера групп с ведущими нулями и пробелами.
func ParseGroup(raw string) (int, error) {
	group, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: group %q is not a number", domainerrors.ErrInvalidInput, raw)
	}
	return group, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
