package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
	apperrors "github.com/lucadeg/Esame-de-gregorio/pkg/errors"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func newTestManager(accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return NewJWTManager(testSecret, "coursehub", accessExpiry, refreshExpiry)
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "u-1",
		Email: "ada@example.com",
		Role:  domain.RoleStudent,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, expiresAt, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email())
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, expiresAt, err := m.IssueRefreshToken(testUser())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	claims, err := m.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email())
}

func TestVerify_ExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute, 24*time.Hour)

	token, _, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assertCode(t, err, "TOKEN_EXPIRED")
}

func TestVerify_GarbageInput(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	for _, garbage := range []string{"", "not-a-jwt", "a.b.c", "\x00\xff\xfe", strings.Repeat("x", 4096)} {
		_, err := m.VerifyAccessToken(garbage)
		assertCode(t, err, "TOKEN_INVALID")
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, _, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = m.VerifyAccessToken(tampered)
	assertCode(t, err, "TOKEN_INVALID")
}

func TestVerify_WrongKey(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)
	other := NewJWTManager("a-completely-different-signing-key!!", "coursehub", time.Hour, 24*time.Hour)

	token, _, err := other.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assertCode(t, err, "TOKEN_INVALID")
}

func TestVerify_RefreshTokenRejectedAsAccess(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	refresh, _, err := m.IssueRefreshToken(testUser())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(refresh)
	assertCode(t, err, "TOKEN_INVALID")

	access, _, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access)
	assertCode(t, err, "TOKEN_INVALID")
}

func TestVerify_WrongIssuer(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)
	other := NewJWTManager(testSecret, "someone-else", time.Hour, 24*time.Hour)

	token, _, err := other.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assertCode(t, err, "TOKEN_INVALID")
}

func TestExpiry_FixedAtIssuance(t *testing.T) {
	m := newTestManager(time.Hour, 24*time.Hour)

	token, issuedExpiry, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)

	// The embedded expiry is the absolute value computed at issuance,
	// not re-derived at verification time.
	assert.Equal(t, issuedExpiry.Unix(), claims.ExpiresAt.Unix())
}
