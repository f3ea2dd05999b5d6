package revocation

import (
	"context"
	"time"
)

// Entry records a token the store knows about. For refresh tokens a
// present entry means "still valid to rotate"; absence means the token
// was rotated or revoked. For access tokens an entry in the blacklist
// means "reject until natural expiry".
type Entry struct {
	TokenID   string    `json:"token_id"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the contract over the shared revocation cache. Entries expire
// passively via TTL; no sweeper runs. Implementations must make Take
// atomic per token id so that of two concurrent callers exactly one
// observes the entry.
type Store interface {
	// Get returns the active entry for a refresh token id, or nil when absent.
	Get(ctx context.Context, tokenID string) (*Entry, error)

	// Put records a refresh token as active for ttl.
	Put(ctx context.Context, entry Entry, ttl time.Duration) error

	// Delete removes a refresh token entry. Visible to all subsequent requests.
	Delete(ctx context.Context, tokenID string) error

	// Take atomically fetches and removes the entry, or returns nil when a
	// concurrent caller already took it.
	Take(ctx context.Context, tokenID string) (*Entry, error)

	// Blacklist marks an access token as revoked for ttl.
	Blacklist(ctx context.Context, entry Entry, ttl time.Duration) error

	// IsBlacklisted reports whether an access token id was revoked.
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}
