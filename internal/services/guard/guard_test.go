package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/ledger"
	"github.com/14kear/siteVoting/internal/lib/logger"
	"github.com/14kear/siteVoting/internal/services/guard/mocks"
	"github.com/14kear/siteVoting/internal/storage"
)

func newTestGuard(l Ledger) *Guard {
	return New(logger.Discard(), l, DefaultGroupCap)
}

func TestGuard_AttemptVote_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := strings.ToLower(gofakeit.Email())
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().
		Append(gomock.Any(), ledger.VotesRange, [][]string{{email, "2", "site-1"}}).
		Return(nil).
		Times(1)

	g := newTestGuard(l)

	voter, err := g.AttemptVote(context.Background(), nil, models.Ballot{Email: email, Group: "2", SiteID: "site-1"})
	require.NoError(t, err)
	assert.Equal(t, models.Voter{Email: email, Group: 2, VotedFor: "site-1"}, voter)
}

func TestGuard_AttemptVote_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		ballot models.Ballot
	}{
		{name: "empty email", ballot: models.Ballot{Group: "1", SiteID: "site-1"}},
		{name: "empty group", ballot: models.Ballot{Email: "a@example.com", SiteID: "site-1"}},
		{name: "empty site", ballot: models.Ballot{Email: "a@example.com", Group: "1"}},
		{name: "non numeric group", ballot: models.Ballot{Email: "a@example.com", Group: "one", SiteID: "site-1"}},
		{name: "zero group", ballot: models.Ballot{Email: "a@example.com", Group: "0", SiteID: "site-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// никаких вызовов ledger не ожидается
			g := newTestGuard(mocks.NewMockLedger(ctrl))

			_, err := g.AttemptVote(context.Background(), nil, tt.ballot)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
		})
	}
}

func TestGuard_AttemptVote_AlreadyVoted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := newTestGuard(mocks.NewMockLedger(ctrl))
	snapshot := []models.Voter{{Email: "voter@example.com", Group: 1, VotedFor: "site-2"}}

	_, err := g.AttemptVote(context.Background(), snapshot, models.Ballot{Email: "Voter@Example.com", Group: "5", SiteID: "site-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
}

func TestGuard_AttemptVote_AlreadyVotedBeatsGroupCap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := newTestGuard(mocks.NewMockLedger(ctrl))
	snapshot := []models.Voter{
		{Email: "a@example.com", Group: 1, VotedFor: "site-1"},
		{Email: "b@example.com", Group: 1, VotedFor: "site-1"},
		{Email: "c@example.com", Group: 1, VotedFor: "site-1"},
	}

	_, err := g.AttemptVote(context.Background(), snapshot, models.Ballot{Email: "a@example.com", Group: "1", SiteID: "site-2"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
}

func TestGuard_AttemptVote_GroupCapReached(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := newTestGuard(mocks.NewMockLedger(ctrl))
	snapshot := []models.Voter{
		{Email: gofakeit.Email(), Group: 7, VotedFor: "site-1"},
		{Email: gofakeit.Email(), Group: 7, VotedFor: "site-2"},
		{Email: gofakeit.Email(), Group: 7, VotedFor: "site-1"},
		{Email: gofakeit.Email(), Group: 8, VotedFor: "site-1"},
	}

	_, err := g.AttemptVote(context.Background(), snapshot, models.Ballot{Email: "new@example.com", Group: "07", SiteID: "site-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrGroupCapReached)
}

func TestGuard_AttemptVote_AppendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Append(gomock.Any(), ledger.VotesRange, gomock.Any()).Return(errors.New("connection reset"))

	g := newTestGuard(l)

	voter, err := g.AttemptVote(context.Background(), nil, models.Ballot{Email: "a@example.com", Group: "1", SiteID: "site-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrPersistenceFailure)
	assert.Empty(t, voter)
}

func TestGuard_AttemptVote_TransactionalLedger(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		wantErr  error
	}{
		{name: "accepted", storeErr: nil, wantErr: nil},
		{name: "duplicate email", storeErr: storage.ErrEmailAlreadyVoted, wantErr: domainerrors.ErrAlreadyVoted},
		{name: "group full", storeErr: storage.ErrGroupFull, wantErr: domainerrors.ErrGroupCapReached},
		{name: "store down", storeErr: errors.New("timeout"), wantErr: domainerrors.ErrPersistenceFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			l := mocks.NewMockTxLedger(ctrl)
			l.EXPECT().
				AppendVote(gomock.Any(), ledger.VotesRange, []string{"a@example.com", "1", "site-1"}, DefaultGroupCap).
				Return(tt.storeErr)

			g := newTestGuard(l)

			_, err := g.AttemptVote(context.Background(), nil, models.Ballot{Email: "a@example.com", Group: "1", SiteID: "site-1"})
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGuard_Submit_ReadsFreshSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Read(gomock.Any(), ledger.VotesRange).Return([][]string{{"taken@example.com", "1", "site-1"}}, nil)

	g := newTestGuard(l)

	_, err := g.Submit(context.Background(), models.Ballot{Email: "taken@example.com", Group: "3", SiteID: "site-2"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)
}

func TestGuard_Submit_ReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().Read(gomock.Any(), ledger.VotesRange).Return(nil, errors.New("quota exceeded"))

	g := newTestGuard(l)

	_, err := g.Submit(context.Background(), models.Ballot{Email: "a@example.com", Group: "1", SiteID: "site-1"})
	assert.ErrorIs(t, err, domainerrors.ErrPersistenceFailure)
}
