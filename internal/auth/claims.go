package auth

import (
	"time"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

// AccessClaims is the payload of an access token.
// v4.local tokens are encrypted, so claims are opaque to clients.
type AccessClaims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
