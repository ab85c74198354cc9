package jwt

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	jwtGo "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIssuer = Issuer{Name: "https://accounts.example", Audience: "site-voting", Secret: []byte("test-secret")}

func TestIDToken_HappyPath(t *testing.T) {
	email := gofakeit.Email()

	token, err := NewIDToken(testIssuer, email, time.Minute)
	require.NoError(t, err)

	got, err := ParseIDToken(testIssuer, token)
	require.NoError(t, err)
	assert.Equal(t, email, got)
}

func TestIDToken_Rejected(t *testing.T) {
	email := gofakeit.Email()

	expired, err := NewIDToken(testIssuer, email, -time.Minute)
	require.NoError(t, err)

	otherAudience := testIssuer
	otherAudience.Audience = "another-app"
	foreign, err := NewIDToken(otherAudience, email, time.Minute)
	require.NoError(t, err)

	otherSecret := testIssuer
	otherSecret.Secret = []byte("wrong")
	forged, err := NewIDToken(otherSecret, email, time.Minute)
	require.NoError(t, err)

	access := jwtGo.NewWithClaims(jwtGo.SigningMethodHS256, jwtGo.MapClaims{
		"iss": testIssuer.Name, "aud": testIssuer.Audience, "email": email,
		"typ": "access", "exp": time.Now().Add(time.Minute).Unix(),
	})
	wrongType, err := access.SignedString(testIssuer.Secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong audience", token: foreign},
		{name: "wrong secret", token: forged},
		{name: "wrong type", token: wrongType},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIDToken(testIssuer, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseIDToken_ProviderTokenWithoutType(t *testing.T) {
	email := gofakeit.Email()

	token := jwtGo.NewWithClaims(jwtGo.SigningMethodHS256, jwtGo.MapClaims{
		"iss":   testIssuer.Name,
		"aud":   testIssuer.Audience,
		"email": email,
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	raw, err := token.SignedString(testIssuer.Secret)
	require.NoError(t, err)

	got, err := ParseIDToken(testIssuer, raw)
	require.NoError(t, err)
	assert.Equal(t, email, got)
}
