package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/erazemk/mobilier/internal/model"
)

// Claims are the session token claims.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Agent returns the identity carried by the claims.
func (c *Claims) Agent() model.Agent {
	return model.Agent{Name: c.Name, Email: c.Email, Role: c.Role}
}

// TokenExpiry is the session lifetime: one working shift with margin.
const TokenExpiry = 12 * time.Hour

// ErrInvalidToken is returned for tokens that fail validation.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs a session token for agent with a unique JTI.
func GenerateToken(secret string, agent model.Agent) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  agent.Name,
		Email: agent.Email,
		Role:  agent.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   agent.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a session token.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !model.ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
