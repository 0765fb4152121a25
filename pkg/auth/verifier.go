package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier maps a bearer credential to a stable user identifier, or rejects
// it. Implementations must have no other observable side effect.
type Verifier interface {
	Verify(token string) (userID string, err error)
}

// ExtractToken extracts the bearer token from an Authorization header value.
// Supports "Bearer <token>" format.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("empty authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// JWTVerifier verifies HS256-signed identity tokens
type JWTVerifier struct {
	SecretKey   []byte
	TokenExpiry time.Duration // used when issuing tokens, default 1 hour
}

// NewJWTVerifier creates a new JWT verifier instance
func NewJWTVerifier(secretKey string, tokenExpiry time.Duration) (*JWTVerifier, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}

	if tokenExpiry == 0 {
		tokenExpiry = time.Hour
	}

	return &JWTVerifier{
		SecretKey:   []byte(secretKey),
		TokenExpiry: tokenExpiry,
	}, nil
}

// Claims represents the identity token claims
type Claims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

// Verify verifies an identity token and returns the user ID
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.SecretKey, nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.UserID == "" {
			return "", errors.New("token has no subject")
		}
		return claims.UserID, nil
	}

	return "", errors.New("invalid token")
}

// GenerateToken issues a signed identity token for the given user.
// Used by development mode and tests; production credentials come from the
// external identity provider.
func (v *JWTVerifier) GenerateToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(v.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "memopilot-local",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.SecretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
