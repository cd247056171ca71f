package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetPurpose = "password_reset"

var (
	ErrResetTokenInvalid = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token expired")
)

// ResetClaims binds an email address to the moment the token was issued.
type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetSigner issues and verifies password reset tokens. It signs with a key
// derived from the application secret so access tokens are never accepted.
type ResetSigner struct {
	key []byte
	now func() time.Time
}

func NewResetSigner(secretKey string) *ResetSigner {
	return &ResetSigner{key: []byte(secretKey + ":" + resetPurpose), now: time.Now}
}

// WithClock returns a copy of the signer reading time from now.
func (s *ResetSigner) WithClock(now func() time.Time) *ResetSigner {
	return &ResetSigner{key: s.key, now: now}
}

// Sign returns a token binding email to the current time.
func (s *ResetSigner) Sign(email string) (string, error) {
	claims := &ResetClaims{
		Email:   email,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and that the token is no older than maxAge.
func (s *ResetSigner) Verify(token string, maxAge time.Duration) (*ResetClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(token, &ResetClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResetTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*ResetClaims)
	if !ok || claims.Purpose != resetPurpose || claims.IssuedAt == nil || claims.Email == "" {
		return nil, ErrResetTokenInvalid
	}
	if s.now().Sub(claims.IssuedAt.Time) > maxAge {
		return nil, ErrResetTokenExpired
	}
	return claims, nil
}
