package session

import (
	"context"
	"time"
)

// Record is the persisted form of a session.
type Record struct {
	// Handle is the primary key: an opaque token suffixed with the
	// credential type tag.
	Handle string

	// UserID is nil for anonymous sessions. Stores compare identifiers via
	// CanonicalUserID so numeric IDs survive JSON round-trips.
	UserID any

	// ExpiresAt is the UTC expiry instant; a nil value never expires.
	ExpiresAt *time.Time

	// HashedSessionToken is the SHA-256 hex of the opaque session token.
	// Empty for anonymous sessions.
	HashedSessionToken string

	// AntiCSRFToken is the double-submit token shared with the client cookie.
	AntiCSRFToken string

	// PublicData and PrivateData are JSON-encoded blobs.
	PublicData  string
	PrivateData string
}

// IsExpired reports whether the record's expiry instant has passed.
// Expired records are treated as absent by the resolver.
func (r *Record) IsExpired() bool {
	return r.ExpiresAt != nil && time.Now().After(*r.ExpiresAt)
}

// RecordPatch is a partial update of a session record; nil fields are left
// untouched.
type RecordPatch struct {
	ExpiresAt   *time.Time
	PublicData  *string
	PrivateData *string
}

// Store defines the persistence contract for session records.
// Implementations must handle concurrent access safely; the core holds no
// locks across requests and tolerates last-writer-wins on refresh.
//
// Create must behave as an upsert keyed on Handle: the core calls it
// speculatively when attaching private data to anonymous sessions. Get and
// Delete return ErrNotFound (possibly wrapped) for missing handles; callers
// swallow it on delete paths.
type Store interface {
	Get(ctx context.Context, handle string) (*Record, error)
	GetByUserID(ctx context.Context, userID any) ([]*Record, error)
	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, handle string, patch RecordPatch) error
	Delete(ctx context.Context, handle string) error
}
