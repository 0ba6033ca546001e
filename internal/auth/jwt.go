package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-app-api/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrAuth marks every credential failure: missing, malformed, invalid or
	// expired tokens, and tokens for accounts that no longer exist.
	ErrAuth = errors.New("AUTH_ERROR")

	ErrMissingToken = fmt.Errorf("%w: missing token", ErrAuth)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrAuth)
)

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 tokens for one issuer/audience pair.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	expires  time.Duration
}

// NewTokenManager creates a TokenManager from the JWT configuration.
func NewTokenManager(cfg config.JWT) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expires:  cfg.Expires,
	}
}

// GenerateToken generates a JWT token for the given user
func (m *TokenManager) GenerateToken(userID, username, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expires)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns the claims. Every failure
// wraps ErrAuth.
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken strips an optional "Bearer " prefix from an Authorization value.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	switch {
	case len(parts) == 2 && strings.EqualFold(parts[0], "Bearer"):
		return parts[1]
	case len(parts) == 1:
		return parts[0]
	default:
		return ""
	}
}
