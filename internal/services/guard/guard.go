// Package guard decides whether a vote may be appended to the ledger.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/ledger"
	"github.com/14kear/siteVoting/internal/storage"
)

//go:generate mockgen -destination=mocks/mock_ledger.go -package=mocks . Ledger,TxLedger

const DefaultGroupCap = 3

type Ledger interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
}

// VoteAppender is implemented by ledgers that can re-check email uniqueness
// and the group cap in the same transaction as the insert.
type VoteAppender interface {
	AppendVote(ctx context.Context, rng string, row []string, groupCap int) error
}

type TxLedger interface {
	Ledger
	VoteAppender
}

type Guard struct {
	log      *slog.Logger
	ledger   Ledger
	groupCap int
}

func New(log *slog.Logger, ledger Ledger, groupCap int) *Guard {
	if groupCap <= 0 {
		groupCap = DefaultGroupCap
	}
	return &Guard{
		log:      log,
		ledger:   ledger,
		groupCap: groupCap,
	}
}

func (g *Guard) GroupCap() int {
	return g.groupCap
}

// Submit reads a fresh snapshot of the Votes range and runs AttemptVote on it.
func (g *Guard) Submit(ctx context.Context, ballot models.Ballot) (models.Voter, error) {
	const op = "guard.Submit"

	rows, err := g.ledger.Read(ctx, ledger.VotesRange)
	if err != nil {
		g.log.Error("failed to read votes", slog.String("op", op), sl.Err(err))
		return models.Voter{}, fmt.Errorf("%s: %w: %w", op, domainerrors.ErrPersistenceFailure, err)
	}

	snapshot, err := ledger.DecodeVoters(rows)
	if err != nil {
		g.log.Warn("skipped malformed vote rows", slog.String("op", op), sl.Err(err))
	}

	return g.AttemptVote(ctx, snapshot, ballot)
}

// AttemptVote checks the ballot against snapshot and appends exactly one row
// on success. Checks run in a fixed order: input, email, group cap.
// On any error nothing has been written.
func (g *Guard) AttemptVote(ctx context.Context, snapshot []models.Voter, ballot models.Ballot) (models.Voter, error) {
	const op = "guard.AttemptVote"

	voter, err := validate(ballot)
	if err != nil {
		return models.Voter{}, fmt.Errorf("%s: %w", op, err)
	}

	log := g.log.With(
		slog.String("op", op),
		slog.String("email", voter.Email),
		slog.Int("group", voter.Group),
	)

	inGroup := 0
	for _, v := range snapshot {
		if strings.EqualFold(v.Email, voter.Email) {
			log.Info("rejected: email already voted")
			return models.Voter{}, fmt.Errorf("%s: %w", op, domainerrors.ErrAlreadyVoted)
		}
		if v.Group == voter.Group {
			inGroup++
		}
	}

	if inGroup >= g.groupCap {
		log.Info("rejected: group is full", slog.Int("votes", inGroup))
		return models.Voter{}, fmt.Errorf("%s: %w", op, domainerrors.ErrGroupCapReached)
	}

	if err := g.append(ctx, voter); err != nil {
		switch {
		case errors.Is(err, storage.ErrEmailAlreadyVoted):
			log.Info("rejected by ledger: email already voted")
			return models.Voter{}, fmt.Errorf("%s: %w", op, domainerrors.ErrAlreadyVoted)
		case errors.Is(err, storage.ErrGroupFull):
			log.Info("rejected by ledger: group is full")
			return models.Voter{}, fmt.Errorf("%s: %w", op, domainerrors.ErrGroupCapReached)
		}

		log.Error("failed to append vote", sl.Err(err))
		return models.Voter{}, fmt.Errorf("%s: %w: %w", op, domainerrors.ErrPersistenceFailure, err)
	}

	log.Info("vote recorded", slog.String("site", voter.VotedFor))

	return voter, nil
}

func (g *Guard) append(ctx context.Context, voter models.Voter) error {
	row := ledger.EncodeVoter(voter)
	if tx, ok := g.ledger.(VoteAppender); ok {
		return tx.AppendVote(ctx, ledger.VotesRange, row, g.groupCap)
	}
	return g.ledger.Append(ctx, ledger.VotesRange, [][]string{row})
}

func validate(b models.Ballot) (models.Voter, error) {
	email := strings.ToLower(strings.TrimSpace(b.Email))
	siteID := strings.TrimSpace(b.SiteID)

	if email == "" || siteID == "" || strings.TrimSpace(b.Group) == "" {
		return models.Voter{}, fmt.Errorf("%w: email, group and site are required", domainerrors.ErrInvalidInput)
	}

	group, err := ledger.ParseGroup(b.Group)
	if err != nil {
		return models.Voter{}, err
	}
	if group <= 0 {
		return models.Voter{}, fmt.Errorf("%w: group must be positive", domainerrors.ErrInvalidInput)
	}

	return models.Voter{Email: email, Group: group, VotedFor: siteID}, nil
}
