package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lucadeg/Esame-de-gregorio/internal/domain"
)

// Token type claim values. The type is checked on verification so a
// refresh token can never pass as an access token or vice versa.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both token kinds. The registered
// subject is the user's email; expiry is an absolute timestamp fixed at
// issuance.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Email returns the token subject.
func (c *Claims) Email() string {
	return c.Subject
}

// JWTManager issues and verifies HS256-signed tokens. It holds no state
// beyond the signing key and validity windows and never touches storage.
type JWTManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a manager with the given key and validity windows.
func NewJWTManager(secret, issuer string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// IssueAccessToken creates a signed access token for the user and returns
// it with its absolute expiry.
func (m *JWTManager) IssueAccessToken(user *domain.User) (string, time.Time, error) {
	return m.issue(user, tokenTypeAccess, m.accessExpiry)
}

// IssueRefreshToken creates a signed refresh token for the user and
// returns it with its absolute expiry.
func (m *JWTManager) IssueRefreshToken(user *domain.User) (string, time.Time, error) {
	return m.issue(user, tokenTypeRefresh, m.refreshExpiry)
}

func (m *JWTManager) issue(user *domain.User, tokenType string, expiry time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(expiry)
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature and expiry of an access token.
func (m *JWTManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, tokenTypeAccess)
}

// VerifyRefreshToken checks signature and expiry of a refresh token.
func (m *JWTManager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, tokenTypeRefresh)
}

// verify never panics on malformed input; every failure path returns a
// typed error, expired tokens distinctly from everything else.
func (m *JWTManager) verify(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired()
		}
		return nil, domain.ErrTokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != wantType || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid()
	}

	return claims, nil
}
