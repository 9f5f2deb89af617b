package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenIssuerExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("test-secret", time.Hour).WithClock(fixedClock(issuedAt))

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"just issued", issuedAt, false},
		{"one second before expiry", issuedAt.Add(time.Hour - time.Second), false},
		{"at expiry", issuedAt.Add(time.Hour), true},
		{"after expiry", issuedAt.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.WithClock(fixedClock(tt.at)).Verify(token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTokenIssuerRejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken, "malformed")

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken, "empty")
}

func TestTokenIssuerRejectsNoneAndMissingExpiry(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(noneToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1"})
	noExpToken, err := noExp.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = issuer.Verify(noExpToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuerRequiresUserID(t *testing.T) {
	_, err := NewTokenIssuer("test-secret", time.Hour).Issue(" ")
	assert.Error(t, err)
}
