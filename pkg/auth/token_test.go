package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "saltbreeze-test",
	ExpirationMinutes: 60,
}

func TestMintAndParseStaffToken(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintStaffToken(testJWT, now, "yuto")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseStaffToken(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, "yuto", claims.Username)
	assert.Equal(t, "saltbreeze-test", claims.Issuer)
	assert.Equal(t, "yuto", claims.Subject)
}

func TestParseStaffToken_wrongSecret(t *testing.T) {
	token, err := MintStaffToken(testJWT, time.Now().UTC(), "yuto")
	require.NoError(t, err)

	other := testJWT
	other.Secret = "different-secret"
	_, err = ParseStaffToken(other, token)
	assert.Error(t, err)
}

func TestParseStaffToken_wrongIssuer(t *testing.T) {
	minted := testJWT
	minted.Issuer = "someone-else"
	token, err := MintStaffToken(minted, time.Now().UTC(), "yuto")
	require.NoError(t, err)

	_, err = ParseStaffToken(testJWT, token)
	assert.Error(t, err)
}

func TestParseStaffToken_expired(t *testing.T) {
	token, err := MintStaffToken(testJWT, time.Now().UTC().Add(-2*time.Hour), "yuto")
	require.NoError(t, err)

	_, err = ParseStaffToken(testJWT, token)
	assert.Error(t, err)
}

func TestMintStaffToken_validatesConfig(t *testing.T) {
	now := time.Now().UTC()

	cfg := testJWT
	cfg.Secret = ""
	_, err := MintStaffToken(cfg, now, "yuto")
	assert.Error(t, err)

	cfg = testJWT
	cfg.ExpirationMinutes = 0
	_, err = MintStaffToken(cfg, now, "yuto")
	assert.Error(t, err)

	_, err = MintStaffToken(testJWT, now, "")
	assert.Error(t, err)
}
