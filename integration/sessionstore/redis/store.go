package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeonMueller-OneAndOnly/blitz/core/session"
)

// defaultKeyPrefix namespaces session keys inside a shared Redis database.
const defaultKeyPrefix = "blitz:session:"

// Store is a Redis-backed session.Store. Records live as JSON values with a
// TTL matching their expiry, and an index set per user supports lookups and
// revoke-all sweeps.
type Store struct {
	client *redis.Client
	prefix string
}

var _ session.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the key namespace prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a Redis session store on top of an established client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storedRecord is the JSON shape persisted per session.
type storedRecord struct {
	Handle             string     `json:"handle"`
	UserID             any        `json:"userId"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	HashedSessionToken string     `json:"hashedSessionToken"`
	AntiCSRFToken      string     `json:"antiCsrfToken"`
	PublicData         string     `json:"publicData"`
	PrivateData        string     `json:"privateData"`
}

func (s *Store) recordKey(handle string) string {
	return s.prefix + handle
}

func (s *Store) userKey(canonicalID string) string {
	return s.prefix + "user:" + canonicalID
}

// Get returns the record for handle, or session.ErrNotFound.
func (s *Store) Get(ctx context.Context, handle string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.recordKey(handle)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var stored storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &session.Record{
		Handle:             stored.Handle,
		UserID:             stored.UserID,
		ExpiresAt:          stored.ExpiresAt,
		HashedSessionToken: stored.HashedSessionToken,
		AntiCSRFToken:      stored.AntiCSRFToken,
		PublicData:         stored.PublicData,
		PrivateData:        stored.PrivateData,
	}, nil
}

// GetByUserID returns every live record owned by userID. Index members whose
// record has expired are pruned on the way.
func (s *Store) GetByUserID(ctx context.Context, userID any) ([]*session.Record, error) {
	canonical := session.CanonicalUserID(userID)
	if canonical == "" {
		return nil, nil
	}

	handles, err := s.client.SMembers(ctx, s.userKey(canonical)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list user sessions: %w", err)
	}

	var records []*session.Record
	for _, handle := range handles {
		record, err := s.Get(ctx, handle)
		if errors.Is(err, session.ErrNotFound) {
			s.client.SRem(ctx, s.userKey(canonical), handle)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Create upserts the record keyed on its handle and registers it in the
// owner's index set.
func (s *Store) Create(ctx context.Context, record *session.Record) error {
	raw, err := json.Marshal(storedRecord{
		Handle:             record.Handle,
		UserID:             record.UserID,
		ExpiresAt:          record.ExpiresAt,
		HashedSessionToken: record.HashedSessionToken,
		AntiCSRFToken:      record.AntiCSRFToken,
		PublicData:         record.PublicData,
		PrivateData:        record.PrivateData,
	})
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(record.Handle), raw, recordTTL(record))
	if canonical := session.CanonicalUserID(record.UserID); canonical != "" {
		pipe.SAdd(ctx, s.userKey(canonical), record.Handle)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}
	return nil
}

// Update applies the patch to the record for handle, or returns
// session.ErrNotFound.
func (s *Store) Update(ctx context.Context, handle string, patch session.RecordPatch) error {
	record, err := s.Get(ctx, handle)
	if err != nil {
		return err
	}
	if patch.ExpiresAt != nil {
		record.ExpiresAt = patch.ExpiresAt
	}
	if patch.PublicData != nil {
		record.PublicData = *patch.PublicData
	}
	if patch.PrivateData != nil {
		record.PrivateData = *patch.PrivateData
	}
	return s.Create(ctx, record)
}

// Delete removes the record for handle and its index membership, or returns
// session.ErrNotFound.
func (s *Store) Delete(ctx context.Context, handle string) error {
	record, err := s.Get(ctx, handle)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(handle))
	if canonical := session.CanonicalUserID(record.UserID); canonical != "" {
		pipe.SRem(ctx, s.userKey(canonical), handle)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// recordTTL maps the record expiry to a Redis TTL; records without an expiry
// never expire. Already-expired records get a minimal TTL so Redis reaps them
// instead of leaving the key immortal.
func recordTTL(record *session.Record) time.Duration {
	if record.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(*record.ExpiresAt), time.Second)
}
