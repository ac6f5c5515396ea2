package auth

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-haptics/internal/infrastructure/config"
)

// Token is an issued access token.
type Token struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   time.Duration `json:"-"`
	Role        Role          `json:"role"`
}

type client struct {
	role       Role
	secretHash string
}

// Authenticator issues and validates access tokens for configured clients.
//
// Thread Safety: All methods are safe for concurrent use; the client table
// is immutable after construction.
type Authenticator struct {
	secret  string
	ttl     time.Duration
	clients map[string]client
}

// NewAuthenticator builds an authenticator from the api.auth section.
//
// Returns:
//   - *Authenticator: Ready to issue and parse tokens
//   - error: ErrSecretTooShort, ErrUnknownRole or ErrInvalidHash
func NewAuthenticator(cfg config.APIAuthConfig) (*Authenticator, error) {
	if len(cfg.JWTSecret) < config.MinJWTSecretLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrSecretTooShort, config.MinJWTSecretLength)
	}

	a := &Authenticator{
		secret:  cfg.JWTSecret,
		ttl:     time.Duration(cfg.AccessTokenTTL) * time.Minute,
		clients: make(map[string]client, len(cfg.Clients)),
	}
	if a.ttl <= 0 {
		a.ttl = 15 * time.Minute //nolint:mnd // default 15-minute access token TTL
	}

	for _, c := range cfg.Clients {
		role, err := ParseRole(c.Role)
		if err != nil {
			return nil, fmt.Errorf("client %q: %w", c.Name, err)
		}
		if _, _, _, err := decodePHC(c.SecretHash); err != nil {
			return nil, fmt.Errorf("client %q: %w", c.Name, err)
		}
		a.clients[c.Name] = client{role: role, secretHash: c.SecretHash}
	}
	return a, nil
}

// TTL returns the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration { return a.ttl }

// IssueToken verifies a client's secret and returns a signed access token.
//
// Returns:
//   - Token: Bearer token carrying the client's role
//   - error: ErrInvalidCredentials for an unknown client or wrong secret
func (a *Authenticator) IssueToken(name, secret string) (Token, error) {
	c, ok := a.clients[name]
	if !ok {
		return Token{}, ErrInvalidCredentials
	}
	match, err := VerifySecret(secret, c.secretHash)
	if err != nil {
		return Token{}, fmt.Errorf("verifying secret: %w", err)
	}
	if !match {
		return Token{}, ErrInvalidCredentials
	}
	return a.Mint(name, c.role)
}

// Mint signs a token for subject without checking a secret. Operators use
// it through the CLI, which already holds the signing secret.
func (a *Authenticator) Mint(subject string, role Role) (Token, error) {
	signed, err := GenerateAccessToken(subject, role, a.secret, a.ttl)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresIn: a.ttl, Role: role}, nil
}

// ParseToken validates a token signed by this authenticator.
func (a *Authenticator) ParseToken(token string) (*CustomClaims, error) {
	return ParseToken(token, a.secret)
}

// ClientRole returns the configured role of a client.
func (a *Authenticator) ClientRole(name string) (Role, bool) {
	c, ok := a.clients[name]
	return c.role, ok
}
