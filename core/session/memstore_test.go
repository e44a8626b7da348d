package session_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonMueller-OneAndOnly/blitz/core/session"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get missing handle", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("create and get returns a copy", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		record := &session.Record{Handle: "h1", UserID: 42, PublicData: `{"userId":42}`}
		require.NoError(t, store.Create(ctx, record))

		got, err := store.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, record.PublicData, got.PublicData)

		got.PublicData = "mutated"
		again, err := store.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, `{"userId":42}`, again.PublicData)
	})

	t.Run("create upserts on handle", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h1", PublicData: "old"}))
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h1", PublicData: "new"}))

		got, err := store.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, "new", got.PublicData)
	})

	t.Run("update patches only set fields", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		expires := time.Now().Add(time.Hour)
		require.NoError(t, store.Create(ctx, &session.Record{
			Handle:      "h1",
			ExpiresAt:   &expires,
			PublicData:  "public",
			PrivateData: "private",
		}))

		newPublic := "public-v2"
		require.NoError(t, store.Update(ctx, "h1", session.RecordPatch{PublicData: &newPublic}))

		got, err := store.Get(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, "public-v2", got.PublicData)
		assert.Equal(t, "private", got.PrivateData)
		require.NotNil(t, got.ExpiresAt)
		assert.WithinDuration(t, expires, *got.ExpiresAt, time.Second)
	})

	t.Run("update missing handle", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		err := store.Update(ctx, "missing", session.RecordPatch{})
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h1"}))
		require.NoError(t, store.Delete(ctx, "h1"))

		_, err := store.Get(ctx, "h1")
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "h1"), session.ErrNotFound)
	})

	t.Run("get by user id canonicalizes numeric forms", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h1", UserID: 42}))
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h2", UserID: float64(42)}))
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h3", UserID: "other"}))
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h4", UserID: nil}))

		records, err := store.GetByUserID(ctx, 42)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("nil user id matches nothing", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		require.NoError(t, store.Create(ctx, &session.Record{Handle: "h1", UserID: nil}))

		records, err := store.GetByUserID(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestRecordIsExpired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	assert.True(t, (&session.Record{ExpiresAt: &past}).IsExpired())
	assert.False(t, (&session.Record{ExpiresAt: &future}).IsExpired())
	assert.False(t, (&session.Record{}).IsExpired())
}

func TestCanonicalUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"int", 42, "42"},
		{"string", "user-1", "user-1"},
		{"float from json", float64(42), "42"},
		{"fractional float", 4.2, "4.2"},
		{"json number", json.Number("42"), "42"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, session.CanonicalUserID(tt.in))
		})
	}
}
