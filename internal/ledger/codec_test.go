package ledger

import (
	"testing"
	"time"

	domainerrors "github.com/14kear/siteVoting/internal/domain/errors"
	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_RoundTrip(t *testing.T) {
	end := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)
	cfg := models.VotingConfig{
		EndTime: end,
		Sites: []models.Site{
			{ID: "site-1", Name: gofakeit.AppName(), URL: gofakeit.URL()},
			{ID: "site-2", Name: gofakeit.AppName(), URL: gofakeit.URL()},
		},
	}

	got, err := DecodeConfig(EncodeConfig(cfg), time.Now())
	require.NoError(t, err)
	assert.True(t, end.Equal(got.EndTime))
	assert.Equal(t, cfg.Sites, got.Sites)
}

func TestDecodeConfig_Countdown(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := [][]string{{"90"}, {"site-1", "Alpha", "https://alpha.example"}}

	cfg, err := DecodeConfig(rows, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Second), cfg.EndTime)
}

func TestDecodeConfig_Missing(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{name: "empty", rows: nil},
		{name: "header only", rows: [][]string{{"60"}}},
		{name: "bad header", rows: [][]string{{"tomorrow"}, {"site-1", "A", "https://a.example"}}},
		{name: "blank site ids", rows: [][]string{{"60"}, {"", "A", "https://a.example"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConfig(tt.rows, time.Now())
			assert.ErrorIs(t, err, domainerrors.ErrMissingConfiguration)
		})
	}
}

func TestDecodeVoters_SkipsMalformedRows(t *testing.T) {
	rows := [][]string{
		{"a@example.com", "1", "site-1"},
		{"b@example.com", " 02 ", "site-2"},
		{"c@example.com", "seven", "site-1"},
		{"", "1", "site-1"},
		{"d@example.com", "01"},
	}

	voters, err := DecodeVoters(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	require.Len(t, voters, 3)
	assert.Equal(t, models.Voter{Email: "b@example.com", Group: 2, VotedFor: "site-2"}, voters[1])
	assert.Equal(t, 1, voters[2].Group)
	assert.Empty(t, voters[2].VotedFor)
}

func TestEncodeVoter(t *testing.T) {
	row := EncodeVoter(models.Voter{Email: "x@example.com", Group: 4, VotedFor: "site-3"})
	assert.Equal(t, []string{"x@example.com", "4", "site-3"}, row)
}

func TestDecodeVoters_LowercasesEmail(t *testing.T) {
	voters, err := DecodeVoters([][]string{
		{"bob@x.io", "1", "site-1"},
		{" Bob@X.io ", "2", "site-1"},
	})
	require.NoError(t, err)

	require.Len(t, voters, 2)
	assert.Equal(t, "bob@x.io", voters[0].Email)
	assert.Equal(t, "bob@x.io", voters[1].Email)
}
