package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LeonMueller-OneAndOnly/blitz/core/cookie"
	"github.com/LeonMueller-OneAndOnly/blitz/core/logger"
)

// refreshThreshold is the fraction of the session lifetime that must remain;
// below it the next state-changing request rolls the expiry forward.
const refreshThreshold = 0.75

// anonymousRefreshLifetime is the cookie lifetime applied when an anonymous
// session is refreshed. Anonymous credentials are long-lived by design; the
// short initial expiry only limits sessions that never come back.
const anonymousRefreshLifetime = 30 * 365 * 24 * time.Hour

// Manager implements the session core. It resolves kernels from request
// credentials, creates, refreshes and revokes sessions, and materializes
// cookie and header mutations on the response.
type Manager struct {
	cfg     Config
	store   Store
	cookies *cookie.Manager
	log     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the structured logger used for resolver and refresh
// tracing. The default discards all output.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a session manager. The store is required; cfg is
// validated eagerly so configuration failures surface at startup rather than
// on the first request.
func NewManager(cfg Config, store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:     cfg,
		store:   store,
		cookies: cookie.New(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type contextKey struct{}

// NewRequestContext returns a context carrying an already-resolved session,
// so later Load calls within the same request reuse it.
func NewRequestContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

// FromContext returns the session resolved earlier in the request, or nil.
func FromContext(ctx context.Context) *Context {
	sc, _ := ctx.Value(contextKey{}).(*Context)
	return sc
}

// Load resolves the session context for the request. Every request ends with
// a kernel: when no usable credential is presented, a fresh anonymous session
// is minted. When the request context already carries a resolved session
// (injected by the middleware via NewRequestContext) it is returned as is,
// making Load idempotent per request.
//
// Cookie and signalling header mutations are written to w as they happen;
// nothing reaches the client until the handler returns.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Context, error) {
	if sc := FromContext(r.Context()); sc != nil {
		return sc, nil
	}

	kernel, err := m.Resolve(w, r)
	if err != nil {
		return nil, err
	}
	if kernel == nil {
		if kernel, err = m.createAnonymousKernel(w, r); err != nil {
			return nil, err
		}
	}
	return &Context{manager: m, w: w, r: r, kernel: kernel}, nil
}

// Resolve derives the session kernel from the request credentials, running
// the CSRF check and the rolling-refresh decision on the way. A nil kernel
// with nil error means no usable credential was presented; the caller is
// expected to mint an anonymous session in that case.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (*Kernel, error) {
	sessionToken, _ := m.cookies.Get(r, m.cookieName(cookieSessionToken))
	idRefreshToken, _ := m.cookies.Get(r, m.cookieName(cookieIDRefreshToken))
	anonymousToken, _ := m.cookies.Get(r, m.cookieName(cookieAnonymousSessionToken))
	antiCSRFToken := r.Header.Get(HeaderAntiCSRFToken)

	enforceCSRF := m.csrfRequired(r.Method)

	if sessionToken != "" {
		return m.resolveEssential(w, r, sessionToken, antiCSRFToken, enforceCSRF)
	}
	if idRefreshToken != "" {
		m.log.DebugContext(r.Context(), "ignoring advanced-method refresh token",
			logger.Component("session"))
		return nil, nil
	}
	if anonymousToken != "" {
		return m.resolveAnonymous(w, r, anonymousToken, antiCSRFToken, enforceCSRF)
	}
	return nil, nil
}

// csrfRequired reports whether the anti-CSRF check applies to the method.
func (m *Manager) csrfRequired(method string) bool {
	switch method {
	case http.MethodGet, http.MethodOptions, http.MethodHead:
		return false
	}
	return !m.cfg.DisableCSRFProtection
}

// checkCSRF enforces the double-submit discipline. It must run before any
// store mutation or cookie emission that depends on the credential.
func (m *Manager) checkCSRF(w http.ResponseWriter, r *http.Request, presented, expected string, enforce bool) error {
	if !enforce {
		return nil
	}
	if presented == "" {
		m.log.WarnContext(r.Context(), "anti-csrf token header missing on state-changing request",
			logger.Component("session"), logger.Method(r.Method))
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
		w.Header().Set(HeaderCSRFError, "true")
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *Manager) resolveEssential(w http.ResponseWriter, r *http.Request, token, antiCSRFToken string, enforceCSRF bool) (*Kernel, error) {
	ctx := r.Context()

	parsed, err := parseSessionToken(token)
	if err != nil {
		m.log.DebugContext(ctx, "failed to parse session token",
			logger.Component("session"), logger.Error(err))
		return nil, nil
	}
	if parsed.Version != tokenVersionZero {
		m.log.DebugContext(ctx, "unsupported session token version",
			logger.Component("session"), slog.String("version", parsed.Version))
		return nil, nil
	}

	record, err := m.store.Get(ctx, parsed.Handle)
	if errors.Is(err, ErrNotFound) {
		m.log.DebugContext(ctx, "session record not found",
			logger.Component("session"), logger.Handle(parsed.Handle))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session record: %w", err)
	}

	if hash256(token) != record.HashedSessionToken {
		m.log.DebugContext(ctx, "session token hash mismatch",
			logger.Component("session"), logger.Handle(record.Handle))
		return nil, nil
	}
	if record.IsExpired() {
		m.log.DebugContext(ctx, "session record expired",
			logger.Component("session"), logger.Handle(record.Handle))
		return nil, nil
	}

	if err := m.checkCSRF(w, r, antiCSRFToken, record.AntiCSRFToken, enforceCSRF); err != nil {
		return nil, err
	}

	publicData, err := decodePublicData(record.PublicData)
	if err != nil {
		m.log.DebugContext(ctx, "corrupt public data in session record",
			logger.Component("session"), logger.Handle(record.Handle), logger.Error(err))
		return nil, nil
	}

	kernel := &Kernel{
		Handle:        record.Handle,
		PublicData:    publicData,
		AntiCSRFToken: record.AntiCSRFToken,
		SessionToken:  token,
	}

	// Rolling refresh runs only on state-changing methods so plain reads
	// never write to the store.
	if r.Method != http.MethodGet {
		publicDataChanged := hash256(record.PublicData) != parsed.HashedPublicData
		renewalDue := false
		if record.ExpiresAt != nil {
			renewalDue = time.Until(*record.ExpiresAt) < time.Duration(refreshThreshold*float64(m.cfg.sessionTTL()))
		}
		if publicDataChanged || renewalDue {
			if err := m.refreshSession(ctx, w, r, kernel, publicDataChanged); err != nil {
				return nil, err
			}
		}
	}

	return kernel, nil
}

func (m *Manager) resolveAnonymous(w http.ResponseWriter, r *http.Request, token, antiCSRFToken string, enforceCSRF bool) (*Kernel, error) {
	payload, err := m.cfg.parseAnonymousSessionToken(token)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		m.log.DebugContext(r.Context(), "invalid anonymous session token",
			logger.Component("session"))
		return nil, nil
	}

	if err := m.checkCSRF(w, r, antiCSRFToken, payload.AntiCSRFToken, enforceCSRF); err != nil {
		return nil, err
	}

	return &Kernel{
		Handle:                payload.Handle,
		PublicData:            payload.PublicData,
		JWTPayload:            payload,
		AntiCSRFToken:         payload.AntiCSRFToken,
		AnonymousSessionToken: token,
	}, nil
}

// createAnonymousKernel mints a fresh anonymous session. The signed JWT is
// the whole session; no store write happens until private data is attached.
func (m *Manager) createAnonymousKernel(w http.ResponseWriter, r *http.Request) (*Kernel, error) {
	antiCSRFToken, err := newRandomToken(defaultTokenLength)
	if err != nil {
		return nil, err
	}
	handle, err := newAnonymousHandle()
	if err != nil {
		return nil, err
	}

	publicData := PublicData{userIDKey: nil}
	payload := AnonymousSessionPayload{
		IsAnonymous:   true,
		Handle:        handle,
		PublicData:    publicData,
		AntiCSRFToken: antiCSRFToken,
	}
	token, err := m.cfg.newAnonymousSessionToken(payload)
	if err != nil {
		return nil, err
	}
	publicDataJSON, err := encodePublicData(publicData)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(m.cfg.anonSessionTTL())
	m.setAnonymousSessionCookie(w, r, token, expires)
	m.setCSRFCookie(w, r, antiCSRFToken, expires)
	m.setPublicDataCookie(w, r, newPublicDataToken(publicDataJSON), expires)
	m.clearSessionCookie(w, r)
	w.Header().Set(HeaderSessionCreated, "true")

	m.log.DebugContext(r.Context(), "created anonymous session",
		logger.Component("session"), logger.Handle(handle))

	return &Kernel{
		Handle:                handle,
		PublicData:            publicData,
		JWTPayload:            &payload,
		AntiCSRFToken:         antiCSRFToken,
		AnonymousSessionToken: token,
	}, nil
}

// createNewSession creates an authenticated session, promoting the previous
// kernel when it was anonymous: its public data is merged under the new data
// and any server-side private data is carried forward.
func (m *Manager) createNewSession(ctx context.Context, w http.ResponseWriter, r *http.Request, publicData PublicData, privateData PrivateData, prev *Kernel) (*Kernel, error) {
	switch m.cfg.Method {
	case MethodEssential:
	case MethodAdvanced:
		return nil, fmt.Errorf("%w: advanced session method", ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: unknown session method %q", ErrInvalidConfig, m.cfg.Method)
	}

	if publicData.UserID() == nil {
		return nil, ErrMissingUserID
	}

	merged := publicData
	if prev != nil && prev.IsAnonymous() {
		merged = mergeData(prev.PublicData, publicData)
	}
	if err := merged.validateRoles(); err != nil {
		return nil, err
	}

	carried := PrivateData{}
	if prev != nil && prev.IsAnonymous() {
		record, err := m.store.Get(ctx, prev.Handle)
		switch {
		case err == nil:
			if pd, err := decodePrivateData(record.PrivateData); err == nil {
				carried = pd
			}
			if err := m.store.Delete(ctx, prev.Handle); err != nil && !errors.Is(err, ErrNotFound) {
				m.log.DebugContext(ctx, "failed to delete promoted anonymous record",
					logger.Component("session"), logger.Handle(prev.Handle), logger.Error(err))
			}
		case errors.Is(err, ErrNotFound):
			// Most anonymous sessions never touch the store.
		default:
			return nil, fmt.Errorf("load anonymous session record: %w", err)
		}
	}
	if privateData != nil {
		carried = mergeData(carried, privateData)
	}

	antiCSRFToken, err := newRandomToken(defaultTokenLength)
	if err != nil {
		return nil, err
	}
	handle, err := newEssentialHandle()
	if err != nil {
		return nil, err
	}
	publicDataJSON, err := encodePublicData(merged)
	if err != nil {
		return nil, err
	}
	sessionToken, err := newSessionToken(handle, publicDataJSON)
	if err != nil {
		return nil, err
	}
	privateDataJSON, err := encodePrivateData(carried)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(m.cfg.sessionTTL())
	record := &Record{
		Handle:             handle,
		UserID:             merged.UserID(),
		ExpiresAt:          &expires,
		HashedSessionToken: hash256(sessionToken),
		AntiCSRFToken:      antiCSRFToken,
		PublicData:         publicDataJSON,
		PrivateData:        privateDataJSON,
	}
	if err := m.store.Create(ctx, record); err != nil {
		return nil, errors.Join(ErrSaveSession, err)
	}

	m.setSessionCookie(w, r, sessionToken, expires)
	m.setCSRFCookie(w, r, antiCSRFToken, expires)
	m.setPublicDataCookie(w, r, newPublicDataToken(publicDataJSON), expires)
	m.clearAnonymousSessionCookie(w, r)
	w.Header().Set(HeaderSessionCreated, "true")

	m.log.DebugContext(ctx, "created authenticated session",
		logger.Component("session"), logger.Handle(handle), logger.UserID(merged.UserID()))

	return &Kernel{
		Handle:        handle,
		PublicData:    merged,
		AntiCSRFToken: antiCSRFToken,
		SessionToken:  sessionToken,
	}, nil
}

// refreshSession renews the kernel's credentials. Anonymous sessions get a
// re-minted JWT with a long-lived cookie; authenticated sessions get their
// expiry rolled forward and, when the public data changed, the public-data
// cookie and stored blob rewritten. The opaque session token itself is never
// rotated here.
func (m *Manager) refreshSession(ctx context.Context, w http.ResponseWriter, r *http.Request, kernel *Kernel, publicDataChanged bool) error {
	if kernel.IsAnonymous() {
		payload := AnonymousSessionPayload{
			IsAnonymous:   true,
			Handle:        kernel.Handle,
			PublicData:    kernel.PublicData,
			AntiCSRFToken: kernel.AntiCSRFToken,
		}
		token, err := m.cfg.newAnonymousSessionToken(payload)
		if err != nil {
			return err
		}
		publicDataJSON, err := encodePublicData(kernel.PublicData)
		if err != nil {
			return err
		}
		kernel.JWTPayload = &payload
		kernel.AnonymousSessionToken = token

		expires := time.Now().Add(anonymousRefreshLifetime)
		m.setAnonymousSessionCookie(w, r, token, expires)
		m.setPublicDataCookie(w, r, newPublicDataToken(publicDataJSON), expires)

		m.log.DebugContext(ctx, "refreshed anonymous session",
			logger.Component("session"), logger.Handle(kernel.Handle))
		return nil
	}

	expires := time.Now().Add(m.cfg.sessionTTL())
	patch := RecordPatch{ExpiresAt: &expires}
	if publicDataChanged {
		publicDataJSON, err := encodePublicData(kernel.PublicData)
		if err != nil {
			return err
		}
		patch.PublicData = &publicDataJSON
		m.setPublicDataCookie(w, r, newPublicDataToken(publicDataJSON), expires)
	}
	if err := m.store.Update(ctx, kernel.Handle, patch); err != nil {
		return errors.Join(ErrSaveSession, err)
	}

	m.log.DebugContext(ctx, "refreshed session expiry",
		logger.Component("session"), logger.Handle(kernel.Handle),
		slog.Bool("public_data_changed", publicDataChanged))
	return nil
}

// revokeSession deletes the record and synthesizes the replacement anonymous
// session within the same request, so concurrent follow-up queries after a
// logout reuse one anonymous cookie set instead of each minting their own.
func (m *Manager) revokeSession(ctx context.Context, w http.ResponseWriter, r *http.Request, handle string) (*Kernel, error) {
	if err := m.store.Delete(ctx, handle); err != nil && !errors.Is(err, ErrNotFound) {
		m.log.DebugContext(ctx, "failed to delete session record on revoke",
			logger.Component("session"), logger.Handle(handle), logger.Error(err))
	}
	return m.createAnonymousKernel(w, r)
}

// revokeAllSessionsForUser deletes every session record owned by userID and
// returns the affected handles. Individual delete failures are swallowed so
// one stale handle cannot block a security-sensitive sweep.
func (m *Manager) revokeAllSessionsForUser(ctx context.Context, userID any) ([]string, error) {
	records, err := m.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions for user: %w", err)
	}

	handles := make([]string, 0, len(records))
	for _, record := range records {
		if err := m.store.Delete(ctx, record.Handle); err != nil && !errors.Is(err, ErrNotFound) {
			m.log.DebugContext(ctx, "failed to delete session record on revoke-all",
				logger.Component("session"), logger.Handle(record.Handle), logger.Error(err))
		}
		handles = append(handles, record.Handle)
	}

	m.log.DebugContext(ctx, "revoked all sessions for user",
		logger.Component("session"), logger.UserID(userID), logger.Count("sessions", len(handles)))
	return handles, nil
}

// setPublicData merges data into the kernel's public data (the userId key is
// silently dropped), propagates configured keys to the user's other sessions,
// persists the result and rewrites the public-data cookie.
func (m *Manager) setPublicData(ctx context.Context, w http.ResponseWriter, r *http.Request, kernel *Kernel, data PublicData) error {
	updates := mergeData(PublicData{}, data)
	delete(updates, userIDKey)

	merged := mergeData(kernel.PublicData, updates)
	if err := merged.validateRoles(); err != nil {
		return err
	}

	if kernel.UserID() != nil {
		if err := m.syncPublicDataAcrossSessions(ctx, kernel.UserID(), updates, kernel.Handle); err != nil {
			return err
		}
	}

	kernel.PublicData = merged

	if kernel.IsAnonymous() {
		// The JWT is the authoritative carrier for anonymous sessions; a
		// store record exists only when private data was attached earlier.
		publicDataJSON, err := encodePublicData(merged)
		if err != nil {
			return err
		}
		err = m.store.Update(ctx, kernel.Handle, RecordPatch{PublicData: &publicDataJSON})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrSaveSession, err)
		}
	}

	return m.refreshSession(ctx, w, r, kernel, true)
}

// syncPublicDataAcrossSessions merges the configured subset of keys into
// every other session record owned by the user.
func (m *Manager) syncPublicDataAcrossSessions(ctx context.Context, userID any, updates PublicData, skipHandle string) error {
	toSync := PublicData{}
	for _, key := range m.cfg.PublicDataKeysToSync {
		if v, ok := updates[key]; ok {
			toSync[key] = v
		}
	}
	if len(toSync) == 0 {
		return nil
	}

	records, err := m.store.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load sessions for user: %w", err)
	}

	for _, record := range records {
		if record.Handle == skipHandle {
			continue
		}
		current, err := decodePublicData(record.PublicData)
		if err != nil {
			m.log.DebugContext(ctx, "skipping session with corrupt public data",
				logger.Component("session"), logger.Handle(record.Handle), logger.Error(err))
			continue
		}
		mergedJSON, err := encodePublicData(mergeData(current, toSync))
		if err != nil {
			return err
		}
		if err := m.store.Update(ctx, record.Handle, RecordPatch{PublicData: &mergedJSON}); err != nil {
			return errors.Join(ErrSaveSession, err)
		}
	}
	return nil
}

// getPrivateData reads the private blob; sessions without a record yield an
// empty map.
func (m *Manager) getPrivateData(ctx context.Context, handle string) (PrivateData, error) {
	record, err := m.store.Get(ctx, handle)
	if errors.Is(err, ErrNotFound) {
		return PrivateData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session record: %w", err)
	}
	return decodePrivateData(record.PrivateData)
}

// setPrivateData merge-writes the private blob. Anonymous kernels without a
// record get one lazily; Create is an upsert on handle, so losing a race to
// a concurrent request is harmless.
func (m *Manager) setPrivateData(ctx context.Context, kernel *Kernel, data PrivateData) error {
	record, err := m.store.Get(ctx, kernel.Handle)
	switch {
	case errors.Is(err, ErrNotFound):
		publicDataJSON, err := encodePublicData(kernel.PublicData)
		if err != nil {
			return err
		}
		privateDataJSON, err := encodePrivateData(data)
		if err != nil {
			return err
		}
		expires := time.Now().Add(m.cfg.anonSessionTTL())
		record = &Record{
			Handle:        kernel.Handle,
			UserID:        kernel.UserID(),
			ExpiresAt:     &expires,
			AntiCSRFToken: kernel.AntiCSRFToken,
			PublicData:    publicDataJSON,
			PrivateData:   privateDataJSON,
		}
		if err := m.store.Create(ctx, record); err != nil {
			return errors.Join(ErrSaveSession, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load session record: %w", err)
	}

	current, err := decodePrivateData(record.PrivateData)
	if err != nil {
		current = PrivateData{}
	}
	mergedJSON, err := encodePrivateData(mergeData(current, data))
	if err != nil {
		return err
	}
	if err := m.store.Update(ctx, kernel.Handle, RecordPatch{PrivateData: &mergedJSON}); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	return nil
}
