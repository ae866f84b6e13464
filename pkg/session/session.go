package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "beta-signup"

var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the session id in the standard jti claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and verifies the signed session cookie value.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager signs with secret. An empty secret gets a random one, so
// sessions do not survive a restart.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("session: generate secret: %w", err)
		}
	}
	return &Manager{secret: key, ttl: ttl, now: time.Now}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a new session.
func (m *Manager) Issue() (token string, id string, err error) {
	id = uuid.NewString()
	token, err = m.Sign(id)
	return token, id, err
}

// Sign produces a fresh token for an existing session id.
func (m *Manager) Sign(id string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return token, nil
}

// Parse verifies the token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}
	return claims, nil
}

// NeedsRefresh reports whether less than half of the lifetime is left.
func (m *Manager) NeedsRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Sub(m.now()) < m.ttl/2
}
