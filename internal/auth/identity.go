package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/swapcircle/internal/config"
)

// Provider resolves the calling user from a signed bearer token. It is
// the only identity source the matching core trusts; account lifecycle
// lives in an external identity service that shares the signing key.
type Provider struct {
	secret []byte
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{secret: []byte(cfg.Auth.JWTSecret)}
}

// IssueToken mints a short-lived HS256 token for the given user.
// Used by the seeder and tests; production tokens come from the
// identity service.
func (p *Provider) IssueToken(userID uint64, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(p.secret)
}

// ParseToken validates the token and returns the user id from its
// subject claim.
func (p *Provider) ParseToken(tokenString string) (uint64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("token missing subject: %w", err)
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return userID, nil
}
