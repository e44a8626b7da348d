package session

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
)

// PublicData is session data safe to expose to the browser. The "userId" key
// is required and nil denotes an anonymous session. Besides userId, public
// data may carry either "role" (string) or "roles" ([]string), never both,
// plus arbitrary application keys.
type PublicData map[string]any

// PrivateData is opaque session data held only server-side.
type PrivateData map[string]any

const (
	userIDKey = "userId"
	roleKey   = "role"
	rolesKey  = "roles"
)

// UserID returns the value of the userId key, nil for anonymous sessions.
func (d PublicData) UserID() any {
	if d == nil {
		return nil
	}
	return d[userIDKey]
}

// validateRoles enforces that role and roles are mutually exclusive.
func (d PublicData) validateRoles() error {
	_, hasRole := d[roleKey]
	_, hasRoles := d[rolesKey]
	if hasRole && hasRoles {
		return ErrRolesConflict
	}
	return nil
}

// AnonymousSessionPayload is the JWT body carried under the namespace claim
// of an anonymous session token.
type AnonymousSessionPayload struct {
	IsAnonymous   bool       `json:"isAnonymous"`
	Handle        string     `json:"handle"`
	PublicData    PublicData `json:"publicData"`
	AntiCSRFToken string     `json:"antiCSRFToken"`
}

// Kernel is the in-memory distillation of a session for the duration of a
// request. It is a tagged variant with a shared prefix of fields: JWTPayload
// is non-nil exactly when the kernel is anonymous, and exactly one of
// SessionToken and AnonymousSessionToken is set.
type Kernel struct {
	Handle        string
	PublicData    PublicData
	JWTPayload    *AnonymousSessionPayload
	AntiCSRFToken string

	// SessionToken is the opaque credential of authenticated sessions.
	SessionToken string
	// AnonymousSessionToken is the signed JWT of anonymous sessions.
	AnonymousSessionToken string
}

// IsAnonymous reports whether the kernel represents an anonymous session.
func (k *Kernel) IsAnonymous() bool {
	return k.JWTPayload != nil
}

// UserID returns the user identifier, nil for anonymous kernels.
func (k *Kernel) UserID() any {
	if k == nil {
		return nil
	}
	return k.PublicData.UserID()
}

// mergeData overlays src onto dst without mutating either; src wins.
func mergeData[M ~map[string]any](dst, src M) M {
	out := make(M, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

func encodePublicData(d PublicData) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode public data: %w", err)
	}
	return string(b), nil
}

func decodePublicData(s string) (PublicData, error) {
	if s == "" {
		return PublicData{}, nil
	}
	var d PublicData
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("decode public data: %w", err)
	}
	return d, nil
}

func encodePrivateData(d PrivateData) (string, error) {
	if d == nil {
		d = PrivateData{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode private data: %w", err)
	}
	return string(b), nil
}

func decodePrivateData(s string) (PrivateData, error) {
	if s == "" {
		return PrivateData{}, nil
	}
	var d PrivateData
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("decode private data: %w", err)
	}
	return d, nil
}

// CanonicalUserID normalizes a user identifier to a comparable string form.
// JSON round-trips turn numeric IDs into float64, so 42, float64(42) and
// json.Number("42") all canonicalize to "42". Nil yields the empty string.
func CanonicalUserID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case float64:
		if id == math.Trunc(id) && !math.IsInf(id, 0) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprintf("%v", id)
	}
}

// sameUserID reports whether two user identifiers name the same user.
// Nil never matches, not even another nil.
func sameUserID(a, b any) bool {
	ca := CanonicalUserID(a)
	return ca != "" && ca == CanonicalUserID(b)
}
