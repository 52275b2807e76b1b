// Package auth mints and verifies the short-lived HS256 tokens the CLI
// presents to the AI proxy.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "learnassist"

// Claims are the standard registered claims plus the caller's id.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"cid"`
}

func GenerateToken(clientID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		ClientID: clientID,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates tokenString and returns its client id. Expired tokens
// yield common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.ClientID, nil
}

// Signer hands out tokens, minting a new one shortly before the cached one
// expires. It satisfies client.TokenSource.
type Signer struct {
	ClientID string
	Secret   []byte
	TTL      time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

func (s *Signer) Token() (string, error) {
	if len(s.Secret) == 0 {
		return "", nil
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expires) > ttl/5 {
		return s.token, nil
	}
	tok, err := GenerateToken(s.ClientID, s.Secret, ttl)
	if err != nil {
		return "", err
	}
	s.token, s.expires = tok, time.Now().Add(ttl)
	return tok, nil
}
