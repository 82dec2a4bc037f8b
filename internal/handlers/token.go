package handlers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims binds a player credential to one session. The token is handed out
// on create/join and presented on the websocket upgrade; there are no user
// accounts, the token is the whole identity.
type Claims struct {
	PlayerID  uuid.UUID `json:"pid"`
	SessionID uuid.UUID `json:"sid"`
	Admin     bool      `json:"adm"`
	jwt.RegisteredClaims
}

// NewToken mints a signed player token.
func NewToken(secret []byte, playerID, sessionID uuid.UUID, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID:  playerID,
		SessionID: sessionID,
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a player token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
