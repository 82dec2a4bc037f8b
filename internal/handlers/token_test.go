package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicrpayne/white-elephant-sub000/engine"
	"github.com/nicrpayne/white-elephant-sub000/internal/game"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	playerID := uuid.New()
	sessionID := uuid.New()

	raw, err := NewToken(secret, playerID, sessionID, true, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.PlayerID)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.True(t, claims.Admin)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	raw, err := NewToken([]byte("right"), uuid.New(), uuid.New(), false, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("wrong"), raw)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	raw, err := NewToken(secret, uuid.New(), uuid.New(), false, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(secret, raw)
	assert.Error(t, err)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{game.ErrSessionNotFound, http.StatusNotFound},
		{engine.ErrGiftNotFound, http.StatusNotFound},
		{game.ErrNotAdmin, http.StatusForbidden},
		{engine.ErrNotYourTurn, http.StatusConflict},
		{engine.ErrStealBackForbidden, http.StatusConflict},
		{engine.ErrGiftLocked, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorStatus(tc.err), "error %v", tc.err)
	}
}
