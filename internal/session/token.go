package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenMinter issues HS256 session tokens in the shape the loan backend uses. The portal
// itself never verifies them; the minter exists for local development and tests.
type TokenMinter struct {
	issuer string
	secret []byte
	now    func() time.Time
}

type TokenClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewTokenMinter(issuer, signingKey string) *TokenMinter {
	return &TokenMinter{issuer: issuer, secret: []byte(signingKey), now: func() time.Time { return time.Now().UTC() }}
}

// Mint returns a token for id. A non-positive ttl omits the exp claim.
func (m *TokenMinter) Mint(id Identity, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.ID) == "" {
		return "", errors.New("missing subject")
	}
	now := m.now()
	claims := TokenClaims{
		Name:  id.DisplayName,
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   m.issuer,
			Subject:  id.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}
