// internal/auth/auth.go
//
// Room ownership.
// A room creator may set a passphrase; exchanging it for a signed token
// unlocks owner-only operations (settings, reveal, delete) for that room.
//
//   - Passphrases are stored as bcrypt hashes.
//   - Tokens are HS256 JWTs carrying the room name; a token for one room is
//     useless in another.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthorized means the token is missing, invalid, expired, or
	// issued for another room.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadPassphrase is returned by ValidatePassphrase.
	ErrBadPassphrase = errors.New("passphrase must be 4-100 characters")
)

// ValidatePassphrase checks passphrase length in characters.
func ValidatePassphrase(p string) error {
	if n := utf8.RuneCountInString(p); n < 4 || n > 100 {
		return ErrBadPassphrase
	}
	return nil
}

func HashPassphrase(p string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost) // cost=10
}

func CheckPassphrase(hash []byte, p string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(p)) == nil
}

// Signer issues and verifies room owner tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer whose tokens last expiresDays days.
func NewSigner(secret string, expiresDays int) *Signer {
	if expiresDays <= 0 {
		expiresDays = 14
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    time.Duration(expiresDays) * 24 * time.Hour,
		now:    time.Now,
	}
}

// Sign returns an owner token for room and its expiry.
func (s *Signer) Sign(room string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"room": room,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := token.SignedString(s.secret)
	return ss, exp, err
}

// Verify checks that tokenStr is a valid owner token for room.
func (s *Signer) Verify(tokenStr, room string) error {
	if tokenStr == "" {
		return ErrUnauthorized
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if got, _ := claims["room"].(string); got != room {
		return fmt.Errorf("%w: token is for another room", ErrUnauthorized)
	}
	return nil
}

// Bearer extracts the token from "Authorization: Bearer <token>".
func Bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
