package reader

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

// chatServer is the far end of one pipe-backed connection. It drains
// outbound client lines into a channel (net.Pipe is unbuffered, so something
// must always be reading) and can inject inbound server lines.
type chatServer struct {
	conn   net.Conn
	lines  chan string
	closed chan struct{}
}

func newChatServer(conn net.Conn) *chatServer {
	s := &chatServer{conn: conn, lines: make(chan string, 64), closed: make(chan struct{})}
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			s.lines <- scanner.Text()
		}
		close(s.closed)
	}()
	return s
}

func (s *chatServer) send(t *testing.T, line string) {
	t.Helper()
	_, err := s.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func (s *chatServer) nextLine(t *testing.T) string {
	t.Helper()
	select {
	case line := <-s.lines:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client line")
		return ""
	}
}

func (s *chatServer) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// scriptedDialer hands out the client ends of pipes in order and records the
// matching server ends.
type scriptedDialer struct {
	mu      sync.Mutex
	servers []*chatServer
	dials   int
}

func (d *scriptedDialer) DialContext(context.Context, string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	client, server := net.Pipe()
	d.servers = append(d.servers, newChatServer(server))
	d.dials++
	return client, nil
}

func (d *scriptedDialer) server(i int) *chatServer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.servers[i]
}

var readerAuth = domain.ChatAuth{TwitchBotUsername: "readerbot", TwitchOauthToken: "tok"}

func newTestRegistry() (*Registry, *scriptedDialer) {
	dialer := &scriptedDialer{}
	return NewRegistry(dialer, clockwork.NewRealClock(), "irc.test:6697"), dialer
}

func TestStart_SendsLoginAndJoins(t *testing.T) {
	registry, dialer := newTestRegistry()

	status, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"chana", "chanb"})
	require.NoError(t, err)
	defer registry.StopAll()

	assert.True(t, status.Running)
	assert.Equal(t, []string{"chana", "chanb"}, status.Channels)
	assert.NotNil(t, status.StartedAt)

	server := dialer.server(0)
	assert.Equal(t, "PASS oauth:tok", server.nextLine(t))
	assert.Equal(t, "NICK readerbot", server.nextLine(t))
	assert.Equal(t, "JOIN #chana", server.nextLine(t))
	assert.Equal(t, "JOIN #chanb", server.nextLine(t))

	logs := registry.Logs("tenant-1", 10)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogEntrySystem, logs[0].Type)
	assert.Contains(t, logs[0].Message, "chana, chanb")
}

func TestStart_ValidationBeforeSideEffects(t *testing.T) {
	registry, dialer := newTestRegistry()

	_, err := registry.Start(context.Background(), "tenant-1", domain.ChatAuth{}, []string{"chan"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = registry.Start(context.Background(), "tenant-1", readerAuth, nil)
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, dialer.dials)
	assert.False(t, registry.Status("tenant-1").Running)
}

func TestInboundMessageLogged(t *testing.T) {
	registry, dialer := newTestRegistry()
	_, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"mychan"})
	require.NoError(t, err)
	defer registry.StopAll()

	server := dialer.server(0)
	server.send(t, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #mychan :hello there")

	assert.Eventually(t, func() bool {
		logs := registry.Logs("tenant-1", 300)
		for _, entry := range logs {
			if entry.Type == domain.LogEntryMessage {
				return entry.Username == "alice" && entry.Channel == "mychan" && entry.Message == "hello there"
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPingAnsweredWithoutLogEntry(t *testing.T) {
	registry, dialer := newTestRegistry()
	_, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"mychan"})
	require.NoError(t, err)
	defer registry.StopAll()

	server := dialer.server(0)
	for range 3 { // drain PASS, NICK, JOIN
		server.nextLine(t)
	}

	server.send(t, "PING :tmi.twitch.tv")
	assert.Equal(t, "PONG :tmi.twitch.tv", server.nextLine(t))

	logs := registry.Logs("tenant-1", 300)
	for _, entry := range logs {
		assert.NotContains(t, entry.Message, "PING")
		assert.NotEqual(t, domain.LogEntryMessage, entry.Type)
	}
}

func TestStart_ReplacesExistingSession(t *testing.T) {
	registry, dialer := newTestRegistry()
	_, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"chana"})
	require.NoError(t, err)

	_, err = registry.Start(context.Background(), "tenant-1", readerAuth, []string{"chanb"})
	require.NoError(t, err)
	defer registry.StopAll()

	assert.Equal(t, 2, dialer.dials)

	// The first session's socket must be closed.
	assert.Eventually(t, dialer.server(0).isClosed, 2*time.Second, 10*time.Millisecond)

	status := registry.Status("tenant-1")
	assert.True(t, status.Running)
	assert.Equal(t, []string{"chanb"}, status.Channels)
}

func TestStop_UnknownTenantIsNoOp(t *testing.T) {
	registry, _ := newTestRegistry()

	assert.False(t, registry.Stop("ghost"))
	assert.False(t, registry.Status("ghost").Running)
	assert.Empty(t, registry.Logs("ghost", 10))
}

func TestStop_TearsDownSession(t *testing.T) {
	registry, dialer := newTestRegistry()
	_, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"chana"})
	require.NoError(t, err)

	assert.True(t, registry.Stop("tenant-1"))
	assert.Eventually(t, dialer.server(0).isClosed, 2*time.Second, 10*time.Millisecond)
	assert.False(t, registry.Status("tenant-1").Running)

	// Stopping again stays a no-op.
	assert.False(t, registry.Stop("tenant-1"))
}

func TestServerCloseMarksSessionStopped(t *testing.T) {
	registry, dialer := newTestRegistry()
	_, err := registry.Start(context.Background(), "tenant-1", readerAuth, []string{"chana"})
	require.NoError(t, err)

	require.NoError(t, dialer.server(0).conn.Close())

	assert.Eventually(t, func() bool {
		return !registry.Status("tenant-1").Running
	}, 2*time.Second, 10*time.Millisecond)

	// The stopped session stays visible to status and log polls.
	logs := registry.Logs("tenant-1", 300)
	last := logs[len(logs)-1]
	assert.Equal(t, domain.LogEntrySystem, last.Type)
	assert.Contains(t, last.Message, "connection closed")
}

func TestLogBufferBoundedAt300(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()
	sess := newSession("tenant-1", client, []string{"chan"}, time.Now())

	for i := range 350 {
		sess.appendLog(domain.LogEntry{
			At:      time.Now(),
			Type:    domain.LogEntryMessage,
			Message: fmt.Sprintf("msg-%d", i),
		})
	}

	all := sess.RecentLogs(domain.MaxReaderLogEntries)
	require.Len(t, all, domain.MaxReaderLogEntries)
	// Oldest entries (including the initial system entry) were dropped.
	assert.Equal(t, "msg-50", all[0].Message)
	assert.Equal(t, "msg-349", all[len(all)-1].Message)
}

func TestRecentLogs_ClampsLimit(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()
	sess := newSession("tenant-1", client, []string{"chan"}, time.Now())

	for i := range 10 {
		sess.appendLog(domain.LogEntry{Type: domain.LogEntryMessage, Message: fmt.Sprintf("msg-%d", i)})
	}

	assert.Len(t, sess.RecentLogs(0), 1)   // clamped up to 1
	assert.Len(t, sess.RecentLogs(-5), 1)  // clamped up to 1
	assert.Len(t, sess.RecentLogs(5), 5)   // newest five
	assert.Len(t, sess.RecentLogs(999), 11) // clamped to 300, then capped by length

	newest := sess.RecentLogs(3)
	assert.Equal(t, "msg-7", newest[0].Message)
	assert.Equal(t, "msg-9", newest[2].Message)
}
