package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/services/tally"
)

// CastVote signs the voter in through the identity provider and submits the
// ballot. Local tallies change only after the ledger accepted the row.
func (v *OnlineVoting) CastVote(ctx context.Context, credential, group, siteID string) (models.Voter, error) {
	const op = "OnlineVoting.CastVote"

	identity, err := v.identity.SignIn(ctx, credential)
	if err != nil {
		return models.Voter{}, fmt.Errorf("%s: %w", op, err)
	}

	log := v.log.With(slog.String("op", op), slog.String("email", identity.Email))

	v.mu.RLock()
	gen := v.generation
	err = v.canVoteLocked(strings.TrimSpace(siteID))
	v.mu.RUnlock()
	if err != nil {
		log.Info("vote refused", sl.Err(err))
		return models.Voter{}, fmt.Errorf("%s: %w", op, err)
	}

	voter, err := v.guard.Submit(ctx, models.Ballot{Email: identity.Email, Group: group, SiteID: siteID})
	if err != nil {
		return models.Voter{}, fmt.Errorf("%s: %w", op, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// пока шла запись, сессию могли сбросить, а Refresh мог уже прочитать эту строку из ledger
	if gen == v.generation && !v.hasVoterLocked(voter.Email) {
		v.voters = append(v.voters, voter)
		v.counts[voter.VotedFor]++
		v.groups[voter.Group]++
	}

	return voter, nil
}

func (v *OnlineVoting) canVoteLocked(siteID string) error {
	switch v.phase {
	case models.PhaseSetup:
		return domainerrors.ErrMissingConfiguration
	case models.PhaseResults:
		return domainerrors.ErrVotingClosed
	}

	if v.config == nil {
		return domainerrors.ErrMissingConfiguration
	}
	if !v.config.EndTime.After(v.clock.Now()) {
		return domainerrors.ErrVotingClosed
	}
	if siteID == "" || !v.config.HasSite(siteID) {
		return fmt.Errorf("%w: unknown site %q", domainerrors.ErrInvalidInput, siteID)
	}
	return nil
}

// HasVoted checks the local view of the ledger.
func (v *OnlineVoting) HasVoted(email string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.hasVoterLocked(email)
}

func (v *OnlineVoting) hasVoterLocked(email string) bool {
	for _, voter := range v.voters {
		if strings.EqualFold(voter.Email, email) {
			return true
		}
	}
	return false
}

// Tallies отдаёт живые счётчики; наружу они видны только администратору.
func (v *OnlineVoting) Tallies() (models.VoteCounts, models.GroupVotes) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return maps.Clone(v.counts), maps.Clone(v.groups)
}

func (v *OnlineVoting) GroupCap() int {
	return v.opts.GroupCap
}

// SignIn resolves a credential without voting.
func (v *OnlineVoting) SignIn(ctx context.Context, credential string) (models.Identity, error) {
	const op = "OnlineVoting.SignIn"

	identity, err := v.identity.SignIn(ctx, credential)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	return identity, nil
}

// Tick moves Voting to Results once the end time is reached. It reports
// whether this call made the transition; later calls are no-ops.
func (v *OnlineVoting) Tick(now time.Time) (bool, error) {
	const op = "OnlineVoting.Tick"

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase != models.PhaseVoting {
		return false, nil
	}
	if v.config == nil {
		return false, fmt.Errorf("%s: %w", op, domainerrors.ErrMissingConfiguration)
	}

	if v.config.EndTime.Sub(now) > 0 {
		return false, nil
	}

	v.phase = models.PhaseResults
	v.resultsAt = now
	v.log.Info("voting finished", slog.String("op", op), slog.Int("votes", len(v.voters)))

	return true, nil
}

// Run вызывает Tick с периодом interval, пока не отменён ctx.
func (v *OnlineVoting) Run(ctx context.Context, interval time.Duration) {
	const op = "OnlineVoting.Run"

	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := v.Tick(v.clock.Now()); err != nil {
				v.log.Error("tick failed", slog.String("op", op), sl.Err(err))
			}
		}
	}
}

type Status struct {
	Phase      models.Phase
	EndTime    time.Time
	Remaining  time.Duration
	GroupVotes models.GroupVotes
	VotesCast  int
	LoadErr    error
}

func (v *OnlineVoting) Status(now time.Time) Status {
	v.mu.RLock()
	defer v.mu.RUnlock()

	st := Status{
		Phase:      v.phase,
		GroupVotes: maps.Clone(v.groups),
		VotesCast:  len(v.voters),
		LoadErr:    v.loadErr,
	}
	if st.GroupVotes == nil {
		st.GroupVotes = models.GroupVotes{}
	}

	if v.config != nil {
		st.EndTime = v.config.EndTime
		if remaining := v.config.EndTime.Sub(now); remaining > 0 && v.phase == models.PhaseVoting {
			st.Remaining = remaining
		}
	}

	return st
}

type Results struct {
	Ranking    []models.Ranked
	Podium     []models.Ranked
	Stage      models.RevealStage
	TotalVotes int
	Rejected   []tally.Rejected
}

// Results is available only after voting ended. Ranking is computed over the
// reconciled ledger: duplicates and group overflows are not counted.
func (v *OnlineVoting) Results(now time.Time) (Results, error) {
	const op = "OnlineVoting.Results"

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.phase != models.PhaseResults || v.config == nil {
		return Results{}, fmt.Errorf("%s: %w", op, domainerrors.ErrResultsSealed)
	}

	rec := tally.Reconcile(v.voters, v.opts.GroupCap)
	ranking := tally.Rank(v.config.Sites, tally.Tally(v.config.Sites, rec.Accepted))

	return Results{
		Ranking:    ranking,
		Podium:     tally.Podium(ranking),
		Stage:      v.revealStageLocked(now),
		TotalVotes: len(rec.Accepted),
		Rejected:   rec.Rejected,
	}, nil
}

func (v *OnlineVoting) revealStageLocked(now time.Time) models.RevealStage {
	if v.opts.RevealStep <= 0 {
		return models.RevealAll
	}

	stage := models.RevealStage(now.Sub(v.resultsAt) / v.opts.RevealStep)
	switch {
	case stage < models.RevealNone:
		return models.RevealNone
	case stage > models.RevealAll:
		return models.RevealAll
	}
	return stage
}

// FormatRemaining renders a countdown as HH:MM:SS; negative values are 00:00:00.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}
