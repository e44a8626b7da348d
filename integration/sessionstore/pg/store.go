package pg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeonMueller-OneAndOnly/blitz/core/session"
	dbpg "github.com/LeonMueller-OneAndOnly/blitz/integration/database/pg"
)

// Schema creates the sessions table. Apply it with your migration tool or
// via EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	handle               TEXT PRIMARY KEY,
	user_id              TEXT,
	expires_at           TIMESTAMPTZ,
	hashed_session_token TEXT NOT NULL DEFAULT '',
	anti_csrf_token      TEXT NOT NULL DEFAULT '',
	public_data          TEXT NOT NULL DEFAULT '{}',
	private_data         TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id);
`

// querier is the subset of pgxpool.Pool and pgx.Tx the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed session.Store. User identifiers are persisted
// in canonical string form, so numeric IDs come back as strings; the core
// compares them canonically either way.
type Store struct {
	pool *pgxpool.Pool
}

var _ session.Store = (*Store)(nil)

// New creates a PostgreSQL session store on top of an established pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.querier(ctx).Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure sessions schema: %w", err)
	}
	return nil
}

// querier joins an ambient transaction when the context carries one.
func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := dbpg.TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// Get returns the record for handle, or session.ErrNotFound.
func (s *Store) Get(ctx context.Context, handle string) (*session.Record, error) {
	row := s.querier(ctx).QueryRow(ctx, `
		SELECT handle, user_id, expires_at, hashed_session_token, anti_csrf_token, public_data, private_data
		FROM sessions WHERE handle = $1`, handle)
	return scanRecord(row)
}

// GetByUserID returns every record owned by userID.
func (s *Store) GetByUserID(ctx context.Context, userID any) ([]*session.Record, error) {
	canonical := session.CanonicalUserID(userID)
	if canonical == "" {
		return nil, nil
	}

	rows, err := s.querier(ctx).Query(ctx, `
		SELECT handle, user_id, expires_at, hashed_session_token, anti_csrf_token, public_data, private_data
		FROM sessions WHERE user_id = $1`, canonical)
	if err != nil {
		return nil, fmt.Errorf("query user sessions: %w", err)
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query user sessions: %w", err)
	}
	return records, nil
}

// Create upserts the record keyed on its handle.
func (s *Store) Create(ctx context.Context, record *session.Record) error {
	var userID *string
	if canonical := session.CanonicalUserID(record.UserID); canonical != "" {
		userID = &canonical
	}

	_, err := s.querier(ctx).Exec(ctx, `
		INSERT INTO sessions (handle, user_id, expires_at, hashed_session_token, anti_csrf_token, public_data, private_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (handle) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			expires_at = EXCLUDED.expires_at,
			hashed_session_token = EXCLUDED.hashed_session_token,
			anti_csrf_token = EXCLUDED.anti_csrf_token,
			public_data = EXCLUDED.public_data,
			private_data = EXCLUDED.private_data`,
		record.Handle, userID, record.ExpiresAt,
		record.HashedSessionToken, record.AntiCSRFToken,
		record.PublicData, record.PrivateData)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Update applies the patch to the record for handle, or returns
// session.ErrNotFound.
func (s *Store) Update(ctx context.Context, handle string, patch session.RecordPatch) error {
	sql, args := buildUpdate(handle, patch)
	if sql == "" {
		// Empty patch; verify existence for a consistent contract.
		_, err := s.Get(ctx, handle)
		return err
	}

	tag, err := s.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// Delete removes the record for handle, or returns session.ErrNotFound.
func (s *Store) Delete(ctx context.Context, handle string) error {
	tag, err := s.querier(ctx).Exec(ctx, `DELETE FROM sessions WHERE handle = $1`, handle)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// buildUpdate assembles the SET clause from the non-nil patch fields. Returns
// an empty statement when the patch is empty.
func buildUpdate(handle string, patch session.RecordPatch) (string, []any) {
	var sets []string
	args := []any{handle}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.ExpiresAt != nil {
		addSet("expires_at", *patch.ExpiresAt)
	}
	if patch.PublicData != nil {
		addSet("public_data", *patch.PublicData)
	}
	if patch.PrivateData != nil {
		addSet("private_data", *patch.PrivateData)
	}
	if len(sets) == 0 {
		return "", nil
	}
	return "UPDATE sessions SET " + strings.Join(sets, ", ") + " WHERE handle = $1", args
}

func scanRecord(row pgx.Row) (*session.Record, error) {
	var (
		record session.Record
		userID *string
	)
	err := row.Scan(&record.Handle, &userID, &record.ExpiresAt,
		&record.HashedSessionToken, &record.AntiCSRFToken,
		&record.PublicData, &record.PrivateData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session record: %w", err)
	}
	if userID != nil {
		record.UserID = *userID
	}
	return &record, nil
}
