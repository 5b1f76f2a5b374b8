package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/thestare/admingate/password"
)

// Postgres is a [Provider] backed by a Postgres admin_accounts table.
//
// Credentials are verified against argon2id hashes stored in the table. The
// provider-side identity is held as a signed token so CurrentIdentity decays
// on its own when the token TTL elapses.
type Postgres struct {
	pool   *pgxpool.Pool
	hasher *password.Hasher
	tokens *TokenManager
	logger zerolog.Logger

	mu      sync.Mutex
	current string
}

// NewPostgres creates a Postgres-backed provider. All dependencies are
// required.
func NewPostgres(pool *pgxpool.Pool, hasher *password.Hasher, tokens *TokenManager, logger zerolog.Logger) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pgx pool")
	}
	if hasher == nil {
		return nil, errors.New("identity: nil password hasher")
	}
	if tokens == nil {
		return nil, errors.New("identity: nil token manager")
	}
	return &Postgres{
		pool:   pool,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With().Str("component", "identity.postgres").Logger(),
	}, nil
}

// Authenticate verifies the identifier+secret pair against the
// admin_accounts table and establishes the provider-side identity.
func (p *Postgres) Authenticate(ctx context.Context, identifier, secret string) (string, error) {
	var (
		userID     string
		secretHash string
		roleStr    string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, secret_hash, role FROM admin_accounts WHERE identifier = $1`,
		identifier,
	).Scan(&userID, &secretHash, &roleStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown identifier reads the same as a wrong secret.
			return "", ErrInvalidCredential
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ok, err := p.hasher.Verify(secret, secretHash)
	if err != nil {
		p.logger.Warn().Str("user_id", userID).Msg("stored secret hash unreadable")
		return "", ErrInvalidCredential
	}
	if !ok {
		return "", ErrInvalidCredential
	}

	role, known := ParseRole(roleStr)
	if !known {
		p.logger.Warn().Str("user_id", userID).Str("role", roleStr).Msg("unknown stored role")
	}

	token, err := p.tokens.Issue(Identity{UserID: userID, Identifier: identifier, Role: role})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.mu.Lock()
	p.current = token
	p.mu.Unlock()

	return userID, nil
}

// CurrentIdentity returns the identity from the held token, or (nil, nil)
// when no token is held or the token has expired.
func (p *Postgres) CurrentIdentity(ctx context.Context) (*Identity, error) {
	p.mu.Lock()
	token := p.current
	p.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	ident, err := p.tokens.Parse(token)
	if err != nil {
		// Expired or unreadable token means no current identity.
		return nil, nil
	}
	return ident, nil
}

// SignOut discards the held identity token.
func (p *Postgres) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = ""
	p.mu.Unlock()
	return nil
}

// QueryRole returns the authoritative role for the user ID. Unknown users
// resolve to RoleUser.
func (p *Postgres) QueryRole(ctx context.Context, userID string) (Role, error) {
	var roleStr string
	err := p.pool.QueryRow(ctx,
		`SELECT role FROM admin_accounts WHERE id = $1`,
		userID,
	).Scan(&roleStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleUser, nil
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	role, _ := ParseRole(roleStr)
	return role, nil
}
