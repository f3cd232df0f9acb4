package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassphrase(t *testing.T) {
	hash, err := HashPassphrase("open sesame")
	require.NoError(t, err)

	assert.True(t, CheckPassphrase(hash, "open sesame"))
	assert.False(t, CheckPassphrase(hash, "open sesame!"))
	assert.False(t, CheckPassphrase([]byte("not a hash"), "open sesame"))
}

func TestValidatePassphrase(t *testing.T) {
	assert.NoError(t, ValidatePassphrase("abcd"))
	assert.NoError(t, ValidatePassphrase("ñañá"))
	assert.ErrorIs(t, ValidatePassphrase("abc"), ErrBadPassphrase)
	assert.ErrorIs(t, ValidatePassphrase(strings.Repeat("x", 101)), ErrBadPassphrase)
}

func TestSigner(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSigner("secret", 1)
	s.now = func() time.Time { return now }

	token, exp, err := s.Sign("kitchen")
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	assert.NoError(t, s.Verify(token, "kitchen"))
	assert.ErrorIs(t, s.Verify(token, "attic"), ErrUnauthorized)
	assert.ErrorIs(t, s.Verify("", "kitchen"), ErrUnauthorized)
	assert.ErrorIs(t, s.Verify("garbage", "kitchen"), ErrUnauthorized)

	other := NewSigner("other secret", 1)
	other.now = s.now
	assert.ErrorIs(t, other.Verify(token, "kitchen"), ErrUnauthorized)

	now = now.Add(25 * time.Hour)
	assert.ErrorIs(t, s.Verify(token, "kitchen"), ErrUnauthorized, "expired")
}

func TestSigner_RejectsOtherAlgorithms(t *testing.T) {
	s := NewSigner("secret", 1)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"room": "kitchen",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	ss, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Verify(ss, "kitchen"), ErrUnauthorized)
}

func TestBearer(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", Bearer(r))

	r.Header.Set("Authorization", "Bearer abc.def ")
	assert.Equal(t, "abc.def", Bearer(r))

	r.Header.Set("Authorization", "bearer xyz")
	assert.Equal(t, "xyz", Bearer(r))

	r.Header.Set("Authorization", "Basic xyz")
	assert.Equal(t, "", Bearer(r))
}
