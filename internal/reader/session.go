package reader

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/streamhaus/chatbridge/internal/domain"
	"github.com/streamhaus/chatbridge/internal/logging"
	"github.com/streamhaus/chatbridge/internal/metrics"
	"github.com/streamhaus/chatbridge/internal/twitch"
)

// Session is one tenant's live inbound chat connection. All mutable state is
// guarded by mu; the read loop is the only writer of log entries besides the
// lifecycle transitions.
type Session struct {
	tenant    domain.TenantID
	conn      net.Conn
	channels  []string
	startedAt time.Time

	mu        sync.Mutex
	running   bool
	lastError string
	logs      []domain.LogEntry
}

func newSession(tenant domain.TenantID, conn net.Conn, channels []string, startedAt time.Time) *Session {
	s := &Session{
		tenant:    tenant,
		conn:      conn,
		channels:  channels,
		startedAt: startedAt,
		running:   true,
	}
	s.appendLog(domain.LogEntry{
		At:      startedAt,
		Type:    domain.LogEntrySystem,
		Message: "joined channels: " + strings.Join(channels, ", "),
	})
	return s
}

// readLoop consumes the inbound byte stream line by line. bufio buffers
// partial lines across reads, so chunk boundaries never truncate or merge
// messages.
func (s *Session) readLoop() {
	reader := bufio.NewReader(s.conn)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimRight(line, "\r\n"); trimmed != "" {
			s.handleLine(trimmed)
		}
		if err != nil {
			s.onReadClosed(err)
			return
		}
	}
}

// handleLine reacts to the two inbound line shapes that matter: server
// keep-alive pings (answered immediately, not logged) and chat messages
// (logged). Everything else is dropped.
func (s *Session) handleLine(line string) {
	if twitch.IsPing(line) {
		if _, err := s.conn.Write([]byte(twitch.PongFor(line) + "\r\n")); err != nil {
			logging.WithTenant(s.tenant).Debug("Pong write failed", "error", err)
		}
		metrics.ReaderPingsTotal.Inc()
		return
	}

	if msg, ok := twitch.ParsePrivMsg(line); ok {
		s.appendLog(domain.LogEntry{
			At:       time.Now(),
			Type:     domain.LogEntryMessage,
			Channel:  msg.Channel,
			Username: msg.Username,
			Message:  msg.Text,
		})
		metrics.ReaderMessagesTotal.Inc()
	}
}

// onReadClosed handles the socket dropping out from under a running session.
// After an explicit stop the transition has already happened and this is a
// no-op.
func (s *Session) onReadClosed(err error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	entry := domain.LogEntry{At: time.Now()}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		entry.Type = domain.LogEntrySystem
		entry.Message = "connection closed"
	} else {
		s.lastError = err.Error()
		entry.Type = domain.LogEntryError
		entry.Message = err.Error()
		metrics.ReaderSessionErrorsTotal.Inc()
	}
	s.appendLogLocked(entry)
	s.mu.Unlock()

	_ = s.conn.Close()
	metrics.ReaderActiveSessions.Dec()
	logging.WithTenant(s.tenant).Info("Chat reader session ended", "reason", entry.Message)
}

// shutdown performs an explicit, error-swallowing teardown: best-effort quit
// line, force close, stopped transition. Safe to call in any state.
func (s *Session) shutdown(reason string) {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	if wasRunning {
		s.appendLogLocked(domain.LogEntry{
			At:      time.Now(),
			Type:    domain.LogEntrySystem,
			Message: reason,
		})
	}
	s.mu.Unlock()

	if wasRunning {
		_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		_, _ = s.conn.Write([]byte("QUIT\r\n"))
	}
	_ = s.conn.Close()

	if wasRunning {
		metrics.ReaderActiveSessions.Dec()
	}
}

func (s *Session) appendLog(entry domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(entry)
}

// appendLogLocked keeps the log a sliding window of the most recent entries.
func (s *Session) appendLogLocked(entry domain.LogEntry) {
	s.logs = append(s.logs, entry)
	if len(s.logs) > domain.MaxReaderLogEntries {
		s.logs = s.logs[len(s.logs)-domain.MaxReaderLogEntries:]
	}
}

// Status returns a point-in-time snapshot of the session.
func (s *Session) Status() domain.ReaderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	startedAt := s.startedAt
	return domain.ReaderStatus{
		Running:   s.running,
		Channels:  append([]string{}, s.channels...),
		StartedAt: &startedAt,
		LastError: s.lastError,
	}
}

// RecentLogs returns up to limit of the newest entries in chronological
// order. The limit is clamped to [1, MaxReaderLogEntries].
func (s *Session) RecentLogs(limit int) []domain.LogEntry {
	if limit < 1 {
		limit = 1
	}
	if limit > domain.MaxReaderLogEntries {
		limit = domain.MaxReaderLogEntries
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit > len(s.logs) {
		limit = len(s.logs)
	}
	return append([]domain.LogEntry{}, s.logs[len(s.logs)-limit:]...)
}
