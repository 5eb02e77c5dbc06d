// Package reader maintains the long-lived per-tenant inbound chat sessions.
//
// At most one live session exists per tenant. Starting replaces any existing
// session (old socket closed first); a dropped socket leaves the session
// stopped until a caller restarts it - there is no automatic reconnect. All
// session and job state is in-memory only and does not survive a process
// restart.
package reader

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/logging"
	"github.com/streamhaus/chatbridge/internal/metrics"
	"github.com/streamhaus/chatbridge/internal/twitch"
)

// Registry owns the tenant-keyed session map. Mutation is whole-entry
// replace-or-delete under the mutex; readers never observe a half-built
// session.
type Registry struct {
	dialer twitch.Dialer
	clock  clockwork.Clock
	addr   string

	mu       sync.Mutex
	sessions map[domain.TenantID]*Session
}

func NewRegistry(dialer twitch.Dialer, clock clockwork.Clock, addr string) *Registry {
	if addr == "" {
		addr = twitch.DefaultAddr
	}
	return &Registry{
		dialer:   dialer,
		clock:    clock,
		addr:     addr,
		sessions: make(map[domain.TenantID]*Session),
	}
}

// Start opens a new session for the tenant, tearing down any existing one
// first. Validation failures happen before any side effect.
func (r *Registry) Start(ctx context.Context, tenant domain.TenantID, auth domain.ChatAuth, channels []string) (domain.ReaderStatus, error) {
	if auth.TwitchBotUsername == "" || auth.TwitchOauthToken == "" {
		return domain.ReaderStatus{}, apperrors.ValidationError("chat credentials are not configured")
	}
	if len(channels) == 0 {
		return domain.ReaderStatus{}, apperrors.ValidationError("no twitch channels configured")
	}

	// Idempotent-by-replacement: never two live sockets for one tenant.
	r.removeSession(tenant, "session replaced")

	conn, err := r.dialer.DialContext(ctx, r.addr)
	if err != nil {
		return domain.ReaderStatus{}, apperrors.ExternalError("failed to connect to twitch chat", err).
			WithField("tenant_id", tenant.String())
	}

	lines := []string{
		"PASS " + twitch.NormalizeOAuthToken(auth.TwitchOauthToken),
		"NICK " + auth.TwitchBotUsername,
	}
	for _, channel := range channels {
		lines = append(lines, "JOIN #"+channel)
	}
	for _, line := range lines {
		if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
			_ = conn.Close()
			return domain.ReaderStatus{}, apperrors.ExternalError("failed to join channels", err).
				WithField("tenant_id", tenant.String())
		}
	}

	sess := newSession(tenant, conn, channels, r.clock.Now())

	// Register before the read loop starts so concurrent status and log
	// queries already see the session as running.
	r.mu.Lock()
	r.sessions[tenant] = sess
	r.mu.Unlock()
	metrics.ReaderActiveSessions.Inc()

	go sess.readLoop()

	logging.WithTenant(tenant).Info("Chat reader session started", "channels", channels)
	return sess.Status(), nil
}

// Stop tears down the tenant's session. Stopping a tenant without a session
// is a no-op reported via the return value, never an error.
func (r *Registry) Stop(tenant domain.TenantID) bool {
	return r.removeSession(tenant, "session stopped")
}

// Status reads the tenant's session state; the zero status means no session
// is registered.
func (r *Registry) Status(tenant domain.TenantID) domain.ReaderStatus {
	r.mu.Lock()
	sess := r.sessions[tenant]
	r.mu.Unlock()

	if sess == nil {
		return domain.ReaderStatus{}
	}
	return sess.Status()
}

// Logs returns the newest entries of the tenant's session log, oldest first.
func (r *Registry) Logs(tenant domain.TenantID, limit int) []domain.LogEntry {
	r.mu.Lock()
	sess := r.sessions[tenant]
	r.mu.Unlock()

	if sess == nil {
		return []domain.LogEntry{}
	}
	return sess.RecentLogs(limit)
}

// StopAll tears down every live session. Used on shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for tenant, sess := range r.sessions {
		sessions = append(sessions, sess)
		delete(r.sessions, tenant)
	}
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.shutdown("server shutting down")
	}
}

func (r *Registry) removeSession(tenant domain.TenantID, reason string) bool {
	r.mu.Lock()
	sess := r.sessions[tenant]
	delete(r.sessions, tenant)
	r.mu.Unlock()

	if sess == nil {
		return false
	}
	sess.shutdown(reason)
	return true
}
