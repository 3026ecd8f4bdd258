// Package auth implements password hashing and stateless bearer-token
// issuance/validation. A Service is constructed once at startup from
// configuration; there is no package-level secret.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is the token lifetime used when none is configured.
const DefaultTokenTTL = 30 * time.Minute

var (
	// ErrBadCredentials is returned for any login failure, whether the
	// username is unknown or the password wrong. Callers must not
	// distinguish the two.
	ErrBadCredentials = errors.New("incorrect username or password")

	// ErrInvalidToken covers malformed, tampered and expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUnknownSubject means the token was valid but its subject no longer
	// maps to an active user.
	ErrUnknownSubject = errors.New("token subject unknown")
)

// Claims are the JWT claims carried by issued tokens. The subject is the
// username.
type Claims struct {
	jwt.RegisteredClaims
}

// Service issues and validates tokens and hashes passwords.
type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
}

// NewService creates an auth service. A zero or negative ttl falls back to
// DefaultTokenTTL, a zero cost to bcrypt.DefaultCost.
func NewService(secret string, ttl time.Duration, bcryptCost int) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{secret: []byte(secret), ttl: ttl, cost: bcryptCost}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// HashPassword hashes a plaintext password with bcrypt.
func (s *Service) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash. The
// comparison is constant-time, delegated to bcrypt.
func (s *Service) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IssueToken creates a signed HS256 bearer token for the given username,
// valid for the service's TTL.
func (s *Service) IssueToken(username string) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims. Any
// failure (bad signature, malformed, expired, missing subject) is reported
// as ErrInvalidToken.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
