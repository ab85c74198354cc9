package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/ledger"
	"github.com/14kear/siteVoting/internal/lib/logger"
	"github.com/14kear/siteVoting/internal/services/auth"
	"github.com/14kear/siteVoting/internal/services/guard"
	"github.com/14kear/siteVoting/internal/services/mocks"
	"github.com/14kear/siteVoting/internal/storage/memory"
)

var start = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// emailIdentity считает credential уже проверенным email.
type emailIdentity struct{}

func (emailIdentity) SignIn(_ context.Context, credential string) (models.Identity, error) {
	if credential == "" {
		return models.Identity{}, auth.ErrInvalidCredentials
	}
	return models.Identity{Email: strings.ToLower(credential)}, nil
}

type ledgerForTest interface {
	Ledger
	guard.Ledger
}

func newTestVoting(l ledgerForTest) (*OnlineVoting, *fakeClock) {
	clock := &fakeClock{now: start}
	log := logger.Discard()
	g := guard.New(log, l, 3)

	return NewOnlineVoting(log, l, emailIdentity{}, g, clock, Options{GroupCap: 3, RevealStep: 2 * time.Second}), clock
}

func siteInputs(n int) []SiteInput {
	out := make([]SiteInput, n)
	for i := range out {
		out[i] = SiteInput{Name: gofakeit.AppName(), URL: fmt.Sprintf("https://site%d.example.com", i+1)}
	}
	return out
}

func configured(t *testing.T, n int) (*OnlineVoting, *fakeClock, *memory.Storage) {
	t.Helper()

	store := memory.New()
	v, clock := newTestVoting(store)

	_, err := v.Configure(context.Background(), siteInputs(n), start.Add(time.Hour))
	require.NoError(t, err)

	return v, clock, store
}

func TestConfigure_Success(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Append(context.Background(), ledger.VotesRange, [][]string{{"old@example.com", "1", "site-1"}}))

	v, _ := newTestVoting(store)

	cfg, err := v.Configure(context.Background(), siteInputs(3), start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, cfg.Sites, 3)
	assert.Equal(t, "site-1", cfg.Sites[0].ID)
	assert.Equal(t, "site-3", cfg.Sites[2].ID)

	st := v.Status(start)
	assert.Equal(t, models.PhaseVoting, st.Phase)
	assert.Equal(t, time.Hour, st.Remaining)
	assert.Zero(t, st.VotesCast)

	counts, groups := v.Tallies()
	assert.Equal(t, models.VoteCounts{"site-1": 0, "site-2": 0, "site-3": 0}, counts)
	assert.Empty(t, groups)

	rows, err := store.Read(context.Background(), ledger.ConfigRange)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = store.Read(context.Background(), ledger.VotesRange)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConfigure_Validation(t *testing.T) {
	tooMany := siteInputs(models.MaxSites + 1)
	noName := siteInputs(2)
	noName[1].Name = "  "
	badScheme := siteInputs(2)
	badScheme[0].URL = "ftp://files.example.com"
	notURL := siteInputs(1)
	notURL[0].URL = "just words"

	tests := []struct {
		name    string
		sites   []SiteInput
		end     time.Time
		wantErr error
	}{
		{name: "no sites", sites: nil, end: start.Add(time.Hour), wantErr: domainerrors.ErrInvalidInput},
		{name: "too many sites", sites: tooMany, end: start.Add(time.Hour), wantErr: domainerrors.ErrInvalidInput},
		{name: "empty name", sites: noName, end: start.Add(time.Hour), wantErr: domainerrors.ErrInvalidInput},
		{name: "bad scheme", sites: badScheme, end: start.Add(time.Hour), wantErr: domainerrors.ErrInvalidURLFormat},
		{name: "not a url", sites: notURL, end: start.Add(time.Hour), wantErr: domainerrors.ErrInvalidURLFormat},
		{name: "end in the past", sites: siteInputs(2), end: start.Add(-time.Minute), wantErr: domainerrors.ErrInvalidInput},
		{name: "end is now", sites: siteInputs(2), end: start, wantErr: domainerrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// ledger без ожиданий: любая запись провалит тест
			v, _ := newTestVoting(mocks.NewMockLedger(ctrl))

			_, err := v.Configure(context.Background(), tt.sites, tt.end)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, models.PhaseSetup, v.Status(start).Phase)
		})
	}
}

func TestConfigure_MaxSites(t *testing.T) {
	v, _, _ := configured(t, models.MaxSites)

	sites, err := v.Sites()
	require.NoError(t, err)
	assert.Len(t, sites, models.MaxSites)
}

func TestConfigure_WrongPhase(t *testing.T) {
	v, _, _ := configured(t, 2)

	_, err := v.Configure(context.Background(), siteInputs(2), start.Add(time.Hour))
	assert.ErrorIs(t, err, domainerrors.ErrWrongPhase)
}

func TestConfigure_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Clear(gomock.Any(), ledger.VotesRange).Return(nil)
	l.EXPECT().Clear(gomock.Any(), ledger.ConfigRange).Return(nil)
	l.EXPECT().Append(gomock.Any(), ledger.ConfigRange, gomock.Any()).Return(errors.New("503"))

	v, _ := newTestVoting(l)

	_, err := v.Configure(context.Background(), siteInputs(2), start.Add(time.Hour))
	assert.ErrorIs(t, err, domainerrors.ErrPersistenceFailure)
	assert.Equal(t, models.PhaseSetup, v.Status(start).Phase)
}

func TestSites_MissingConfiguration(t *testing.T) {
	v, _ := newTestVoting(memory.New())

	_, err := v.Sites()
	assert.ErrorIs(t, err, domainerrors.ErrMissingConfiguration)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("empty ledger stays in setup", func(t *testing.T) {
		v, _ := newTestVoting(memory.New())

		require.NoError(t, v.Load(ctx))
		st := v.Status(start)
		assert.Equal(t, models.PhaseSetup, st.Phase)
		assert.NoError(t, st.LoadErr)
	})

	t.Run("broken config reports missing configuration", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Append(ctx, ledger.ConfigRange, [][]string{{"60"}}))
		v, _ := newTestVoting(store)

		err := v.Load(ctx)
		assert.ErrorIs(t, err, domainerrors.ErrMissingConfiguration)

		st := v.Status(start)
		assert.Equal(t, models.PhaseSetup, st.Phase)
		assert.ErrorIs(t, st.LoadErr, domainerrors.ErrMissingConfiguration)
	})

	t.Run("countdown config restores votes", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Append(ctx, ledger.ConfigRange, [][]string{
			{"300"},
			{"site-1", "Alpha", "https://alpha.example"},
			{"site-2", "Beta", "https://beta.example"},
		}))
		require.NoError(t, store.Append(ctx, ledger.VotesRange, [][]string{
			{"a@example.com", "1", "site-2"},
			{"b@example.com", "01", "site-2"},
			{"c@example.com", "x", "site-1"},
		}))
		v, _ := newTestVoting(store)

		require.NoError(t, v.Load(ctx))

		st := v.Status(start)
		assert.Equal(t, models.PhaseVoting, st.Phase)
		assert.Equal(t, 5*time.Minute, st.Remaining)
		assert.Equal(t, models.GroupVotes{1: 2}, st.GroupVotes)

		counts, _ := v.Tallies()
		assert.Equal(t, models.VoteCounts{"site-1": 0, "site-2": 2}, counts)
	})

	t.Run("read failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		l := mocks.NewMockLedger(ctrl)
		l.EXPECT().Read(gomock.Any(), ledger.ConfigRange).Return(nil, errors.New("quota"))
		v, _ := newTestVoting(l)

		assert.ErrorIs(t, v.Load(ctx), domainerrors.ErrPersistenceFailure)
	})
}

func TestLoad_ExpiredEndTimeMovesToResultsOnFirstTick(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Append(context.Background(), ledger.ConfigRange, [][]string{
		{start.Add(-time.Hour).Format(time.RFC3339)},
		{"site-1", "Alpha", "https://alpha.example"},
	}))
	v, clock := newTestVoting(store)

	require.NoError(t, v.Load(context.Background()))
	assert.Equal(t, models.PhaseVoting, v.Status(clock.now).Phase)

	moved, err := v.Tick(clock.now)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, models.PhaseResults, v.Status(clock.now).Phase)
}

func TestRefresh_PicksUpExternalWrites(t *testing.T) {
	v, _, store := configured(t, 2)

	require.NoError(t, store.Append(context.Background(), ledger.VotesRange, [][]string{{"ext@example.com", "4", "site-2"}}))
	require.NoError(t, v.Refresh(context.Background()))

	counts, groups := v.Tallies()
	assert.Equal(t, 1, counts["site-2"])
	assert.Equal(t, 1, groups[4])
	assert.True(t, v.HasVoted("EXT@example.com"))
}

func TestRefresh_MissingConfiguration(t *testing.T) {
	v, _ := newTestVoting(memory.New())
	assert.ErrorIs(t, v.Refresh(context.Background()), domainerrors.ErrMissingConfiguration)
}

func TestReset(t *testing.T) {
	v, _, store := configured(t, 2)
	_, err := v.CastVote(context.Background(), gofakeit.Email(), "1", "site-1")
	require.NoError(t, err)

	require.NoError(t, v.Reset(context.Background()))

	st := v.Status(start)
	assert.Equal(t, models.PhaseSetup, st.Phase)
	assert.Zero(t, st.VotesCast)

	for _, rng := range []string{ledger.ConfigRange, ledger.VotesRange} {
		rows, err := store.Read(context.Background(), rng)
		require.NoError(t, err)
		assert.Empty(t, rows, rng)
	}

	// после сброса можно настроить заново
	_, err = v.Configure(context.Background(), siteInputs(1), start.Add(time.Minute))
	require.NoError(t, err)
}

func TestReset_FailureKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Read(gomock.Any(), ledger.ConfigRange).Return([][]string{
		{start.Add(time.Hour).Format(time.RFC3339)},
		{"site-1", "Alpha", "https://alpha.example"},
	}, nil)
	l.EXPECT().Read(gomock.Any(), ledger.VotesRange).Return(nil, nil)
	l.EXPECT().Clear(gomock.Any(), ledger.VotesRange).Return(errors.New("permission denied"))

	v, _ := newTestVoting(l)
	require.NoError(t, v.Load(context.Background()))

	err := v.Reset(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrPersistenceFailure)
	assert.Equal(t, models.PhaseVoting, v.Status(start).Phase)
}
