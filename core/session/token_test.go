package session

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomToken(t *testing.T) {
	t.Parallel()

	t.Run("default length", func(t *testing.T) {
		t.Parallel()

		tok, err := newRandomToken(0)
		require.NoError(t, err)
		assert.Len(t, tok, defaultTokenLength)
	})

	t.Run("custom length and alphabet", func(t *testing.T) {
		t.Parallel()

		tok, err := newRandomToken(128)
		require.NoError(t, err)
		assert.Len(t, tok, 128)
		for _, r := range tok {
			assert.Contains(t, tokenAlphabet, string(r))
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		t.Parallel()

		a, err := newRandomToken(defaultTokenLength)
		require.NoError(t, err)
		b, err := newRandomToken(defaultTokenLength)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestHandles(t *testing.T) {
	t.Parallel()

	essential, err := newEssentialHandle()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(essential, "-"+handleTypeEssential))

	anonymous, err := newAnonymousHandle()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(anonymous, "-"+handleTypeAnonymous))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	handle, err := newEssentialHandle()
	require.NoError(t, err)

	const publicDataJSON = `{"userId":42,"role":"admin"}`
	token, err := newSessionToken(handle, publicDataJSON)
	require.NoError(t, err)

	parsed, err := parseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, handle, parsed.Handle)
	assert.Equal(t, hash256(publicDataJSON), parsed.HashedPublicData)
	assert.Equal(t, tokenVersionZero, parsed.Version)
	assert.NotEmpty(t, parsed.ID)
}

func TestParseSessionTokenMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"empty", ""},
		{"too few parts", base64.StdEncoding.EncodeToString([]byte("a;b;c"))},
		{"too many parts", base64.StdEncoding.EncodeToString([]byte("a;b;c;d;e"))},
		{"empty part", base64.StdEncoding.EncodeToString([]byte("a;;c;v0"))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parseSessionToken(tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestAnonymousSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	handle, err := newAnonymousHandle()
	require.NoError(t, err)

	payload := AnonymousSessionPayload{
		IsAnonymous:   true,
		Handle:        handle,
		PublicData:    PublicData{userIDKey: nil},
		AntiCSRFToken: "csrf-token-value",
	}

	token, err := cfg.newAnonymousSessionToken(payload)
	require.NoError(t, err)

	parsed, err := cfg.parseAnonymousSessionToken(token)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, parsed.IsAnonymous)
	assert.Equal(t, handle, parsed.Handle)
	assert.Equal(t, "csrf-token-value", parsed.AntiCSRFToken)
}

func TestParseAnonymousSessionToken(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	t.Run("garbage token is invalid not an error", func(t *testing.T) {
		t.Parallel()

		parsed, err := cfg.parseAnonymousSessionToken("not-a-jwt")
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("wrong signing secret is invalid", func(t *testing.T) {
		t.Parallel()

		other := DefaultConfig()
		other.SecretKey = "another-secret-key-at-least-32-bytes-long"
		token, err := other.newAnonymousSessionToken(AnonymousSessionPayload{
			IsAnonymous: true,
			Handle:      "h-anonymous-jwt",
		})
		require.NoError(t, err)

		parsed, err := cfg.parseAnonymousSessionToken(token)
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("non-anonymous payload is invalid", func(t *testing.T) {
		t.Parallel()

		token, err := cfg.newAnonymousSessionToken(AnonymousSessionPayload{
			IsAnonymous: false,
			Handle:      "h-anonymous-jwt",
		})
		require.NoError(t, err)

		parsed, err := cfg.parseAnonymousSessionToken(token)
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("unresolvable secret surfaces as error", func(t *testing.T) {
		t.Parallel()

		prod := DefaultConfig()
		prod.Environment = "production"

		_, err := prod.parseAnonymousSessionToken("whatever")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
