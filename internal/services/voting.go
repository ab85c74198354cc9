package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/ledger"
	"github.com/14kear/siteVoting/internal/services/tally"
)

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks . Ledger,IdentityProvider

type Ledger interface {
	Read(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	Clear(ctx context.Context, rng string) error
}

type IdentityProvider interface {
	SignIn(ctx context.Context, credential string) (models.Identity, error)
}

type VoteSubmitter interface {
	Submit(ctx context.Context, ballot models.Ballot) (models.Voter, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Options struct {
	GroupCap   int
	RevealStep time.Duration
}

// OnlineVoting ведёт сессию голосования: Setup -> Voting -> Results.
// Reset из любой фазы возвращает в Setup.
type OnlineVoting struct {
	log      *slog.Logger
	ledger   Ledger
	identity IdentityProvider
	guard    VoteSubmitter
	clock    Clock
	opts     Options

	mu         sync.RWMutex
	phase      models.Phase
	config     *models.VotingConfig
	voters     []models.Voter
	counts     models.VoteCounts
	groups     models.GroupVotes
	resultsAt  time.Time
	loadErr    error
	generation int
}

func NewOnlineVoting(
	log *slog.Logger,
	ledger Ledger,
	identity IdentityProvider,
	guard VoteSubmitter,
	clock Clock,
	opts Options,
) *OnlineVoting {
	if opts.GroupCap <= 0 {
		opts.GroupCap = 3
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &OnlineVoting{
		log:      log,
		ledger:   ledger,
		identity: identity,
		guard:    guard,
		clock:    clock,
		opts:     opts,
		phase:    models.PhaseSetup,
	}
}

type SiteInput struct {
	Name string
	URL  string
}

// Configure validates the setup form, persists it and starts voting.
// Nothing is written when validation fails.
func (v *OnlineVoting) Configure(ctx context.Context, input []SiteInput, endTime time.Time) (models.VotingConfig, error) {
	const op = "OnlineVoting.Configure"

	log := v.log.With(slog.String("op", op))

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase != models.PhaseSetup {
		return models.VotingConfig{}, fmt.Errorf("%s: %w: phase is %s", op, domainerrors.ErrWrongPhase, v.phase)
	}

	cfg, err := buildConfig(input, endTime, v.clock.Now())
	if err != nil {
		log.Info("setup rejected", sl.Err(err))
		return models.VotingConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	// сначала чистим, потом пишем: при сбое посередине ledger остаётся пустым
	if err := v.ledger.Clear(ctx, ledger.VotesRange); err != nil {
		return models.VotingConfig{}, v.persistenceErr(log, op, err)
	}
	if err := v.ledger.Clear(ctx, ledger.ConfigRange); err != nil {
		return models.VotingConfig{}, v.persistenceErr(log, op, err)
	}
	if err := v.ledger.Append(ctx, ledger.ConfigRange, ledger.EncodeConfig(cfg)); err != nil {
		return models.VotingConfig{}, v.persistenceErr(log, op, err)
	}

	if err := v.enterVotingLocked(&cfg, nil); err != nil {
		return models.VotingConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("voting configured", slog.Int("sites", len(cfg.Sites)), slog.Time("end", cfg.EndTime))

	return cfg, nil
}

// Load restores the session from the ledger. An empty Config range leaves the
// session in Setup; a broken one also leaves it in Setup and returns
// ErrMissingConfiguration, which Status keeps reporting until the next
// successful Load, Configure or Reset.
func (v *OnlineVoting) Load(ctx context.Context) error {
	const op = "OnlineVoting.Load"

	log := v.log.With(slog.String("op", op))

	rows, err := v.ledger.Read(ctx, ledger.ConfigRange)
	if err != nil {
		return v.persistenceErr(log, op, err)
	}

	if len(rows) == 0 {
		v.mu.Lock()
		v.toSetupLocked(nil)
		v.mu.Unlock()

		log.Info("no configuration stored, waiting for setup")
		return nil
	}

	cfg, err := ledger.DecodeConfig(rows, v.clock.Now())
	if err != nil {
		v.mu.Lock()
		v.toSetupLocked(err)
		v.mu.Unlock()

		log.Warn("stored configuration is unusable", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	voters, err := v.readVoters(ctx, log)
	if err != nil {
		return v.persistenceErr(log, op, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.enterVotingLocked(&cfg, voters); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("session restored", slog.Int("sites", len(cfg.Sites)), slog.Int("votes", len(voters)))

	return nil
}

// Refresh re-reads the Votes range and recomputes every tally from it.
func (v *OnlineVoting) Refresh(ctx context.Context) error {
	const op = "OnlineVoting.Refresh"

	log := v.log.With(slog.String("op", op))

	v.mu.RLock()
	gen, cfg := v.generation, v.config
	v.mu.RUnlock()

	if cfg == nil {
		return fmt.Errorf("%s: %w", op, domainerrors.ErrMissingConfiguration)
	}

	voters, err := v.readVoters(ctx, log)
	if err != nil {
		return v.persistenceErr(log, op, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		log.Info("session changed during refresh, result dropped")
		return nil
	}
	v.setVotersLocked(voters)

	return nil
}

// Reset clears both ledger ranges and returns to Setup. On a ledger failure
// the session is left as it was.
func (v *OnlineVoting) Reset(ctx context.Context) error {
	const op = "OnlineVoting.Reset"

	log := v.log.With(slog.String("op", op))

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ledger.Clear(ctx, ledger.VotesRange); err != nil {
		return v.persistenceErr(log, op, err)
	}
	if err := v.ledger.Clear(ctx, ledger.ConfigRange); err != nil {
		return v.persistenceErr(log, op, err)
	}

	v.toSetupLocked(nil)
	log.Info("session reset")

	return nil
}

func (v *OnlineVoting) Sites() ([]models.Site, error) {
	const op = "OnlineVoting.Sites"

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.config == nil {
		return nil, fmt.Errorf("%s: %w", op, domainerrors.ErrMissingConfiguration)
	}

	return append([]models.Site(nil), v.config.Sites...), nil
}

func (v *OnlineVoting) enterVotingLocked(cfg *models.VotingConfig, voters []models.Voter) error {
	if cfg == nil || len(cfg.Sites) == 0 {
		return domainerrors.ErrMissingConfiguration
	}

	v.generation++
	v.phase = models.PhaseVoting
	v.config = cfg
	v.resultsAt = time.Time{}
	v.loadErr = nil
	v.setVotersLocked(voters)

	return nil
}

func (v *OnlineVoting) toSetupLocked(loadErr error) {
	v.generation++
	v.phase = models.PhaseSetup
	v.config = nil
	v.voters = nil
	v.counts = nil
	v.groups = nil
	v.resultsAt = time.Time{}
	v.loadErr = loadErr
}

func (v *OnlineVoting) setVotersLocked(voters []models.Voter) {
	v.voters = voters
	v.counts = tally.Tally(v.config.Sites, voters)
	v.groups = tally.GroupTally(voters)
}

func (v *OnlineVoting) readVoters(ctx context.Context, log *slog.Logger) ([]models.Voter, error) {
	rows, err := v.ledger.Read(ctx, ledger.VotesRange)
	if err != nil {
		return nil, err
	}

	voters, err := ledger.DecodeVoters(rows)
	if err != nil {
		log.Warn("skipped malformed vote rows", sl.Err(err))
	}
	return voters, nil
}

func (v *OnlineVoting) persistenceErr(log *slog.Logger, op string, err error) error {
	log.Error("ledger request failed", sl.Err(err))
	return fmt.Errorf("%s: %w: %w", op, domainerrors.ErrPersistenceFailure, err)
}

func buildConfig(input []SiteInput, endTime, now time.Time) (models.VotingConfig, error) {
	if len(input) == 0 || len(input) > models.MaxSites {
		return models.VotingConfig{}, fmt.Errorf("%w: between 1 and %d sites required, got %d",
			domainerrors.ErrInvalidInput, models.MaxSites, len(input))
	}

	sites := make([]models.Site, len(input))
	for i, in := range input {
		name, rawURL := strings.TrimSpace(in.Name), strings.TrimSpace(in.URL)
		if name == "" || rawURL == "" {
			return models.VotingConfig{}, fmt.Errorf("%w: site %d needs a name and a url", domainerrors.ErrInvalidInput, i+1)
		}
		if err := validateURL(rawURL); err != nil {
			return models.VotingConfig{}, fmt.Errorf("%w: site %d: %v", domainerrors.ErrInvalidURLFormat, i+1, err)
		}
		sites[i] = models.Site{ID: models.SiteID(i), Name: name, URL: rawURL}
	}

	if endTime.IsZero() || !endTime.After(now) {
		return models.VotingConfig{}, fmt.Errorf("%w: end time must be in the future", domainerrors.ErrInvalidInput)
	}

	return models.VotingConfig{Sites: sites, EndTime: endTime.UTC()}, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}
