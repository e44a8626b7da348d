package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// tokenVersionZero is the only opaque-token version this core accepts.
	tokenVersionZero = "v0"

	// sessionTokenSeparator joins the parts of an opaque session token.
	// Guaranteed not to appear in any part: handles and nonces are drawn from
	// tokenAlphabet, the fingerprint is lowercase hex, the version is fixed.
	sessionTokenSeparator = ";"

	// Handle type tags; the handle suffix encodes the credential type.
	handleTypeEssential = "opaque-token-simple"
	handleTypeAnonymous = "anonymous-jwt"

	jwtIssuer           = "blitzjs"
	jwtAudience         = "blitzjs"
	jwtAnonymousSubject = "anonymous"
)

// tokenAlphabet is URL-safe and exactly 64 characters, so masking a random
// byte with 0x3f selects uniformly.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

const defaultTokenLength = 32

// newRandomToken returns a cryptographically random URL-safe string of length n.
func newRandomToken(n int) (string, error) {
	if n <= 0 {
		n = defaultTokenLength
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[b&0x3f]
	}
	return string(buf), nil
}

// hash256 returns the lowercase hex SHA-256 digest of s.
func hash256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func newEssentialHandle() (string, error) {
	tok, err := newRandomToken(defaultTokenLength)
	if err != nil {
		return "", err
	}
	return tok + "-" + handleTypeEssential, nil
}

func newAnonymousHandle() (string, error) {
	tok, err := newRandomToken(defaultTokenLength)
	if err != nil {
		return "", err
	}
	return tok + "-" + handleTypeAnonymous, nil
}

// parsedSessionToken is the decoded form of an opaque session token.
type parsedSessionToken struct {
	Handle           string
	ID               string
	HashedPublicData string
	Version          string
}

// newSessionToken mints the opaque credential of an authenticated session:
// base64 of handle, a fresh nonce, the SHA-256 fingerprint of the serialized
// public data, and the token version.
func newSessionToken(handle, publicDataJSON string) (string, error) {
	id, err := newRandomToken(defaultTokenLength)
	if err != nil {
		return "", err
	}
	raw := strings.Join([]string{handle, id, hash256(publicDataJSON), tokenVersionZero}, sessionTokenSeparator)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func parseSessionToken(token string) (parsedSessionToken, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return parsedSessionToken{}, errors.Join(ErrMalformedToken, err)
	}
	parts := strings.Split(string(raw), sessionTokenSeparator)
	if len(parts) != 4 {
		return parsedSessionToken{}, ErrMalformedToken
	}
	for _, p := range parts {
		if p == "" {
			return parsedSessionToken{}, ErrMalformedToken
		}
	}
	return parsedSessionToken{
		Handle:           parts[0],
		ID:               parts[1],
		HashedPublicData: parts[2],
		Version:          parts[3],
	}, nil
}

// newPublicDataToken encodes serialized public data for the client-readable
// public-data cookie.
func newPublicDataToken(publicDataJSON string) string {
	return base64.StdEncoding.EncodeToString([]byte(publicDataJSON))
}

// anonymousSessionClaims wraps the session payload under the namespace claim.
type anonymousSessionClaims struct {
	jwt.RegisteredClaims
	Session AnonymousSessionPayload `json:"blitzjs"`
}

// newAnonymousSessionToken mints the HS256 JWT of an anonymous session.
func (c Config) newAnonymousSessionToken(payload AnonymousSessionPayload) (string, error) {
	secret, err := c.secretKey()
	if err != nil {
		return "", err
	}

	claims := anonymousSessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   jwtIssuer,
			Audience: jwt.ClaimStrings{jwtAudience},
			Subject:  jwtAnonymousSubject,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Session: payload,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return signed, nil
}

// parseAnonymousSessionToken validates an anonymous session JWT. A nil
// payload with nil error means the token is invalid; only configuration
// failures (unresolvable secret) surface as errors.
func (c Config) parseAnonymousSessionToken(token string) (*AnonymousSessionPayload, error) {
	secret, err := c.secretKey()
	if err != nil {
		return nil, err
	}

	var claims anonymousSessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithSubject(jwtAnonymousSubject),
	)
	if err != nil || !parsed.Valid || !claims.Session.IsAnonymous {
		return nil, nil
	}
	return &claims.Session, nil
}
