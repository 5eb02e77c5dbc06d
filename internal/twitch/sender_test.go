package twitch

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
)

type pipeDialer struct {
	conn net.Conn
	err  error
}

func (d pipeDialer) DialContext(context.Context, string) (net.Conn, error) {
	return d.conn, d.err
}

// collectLines drains protocol lines from the server end of the pipe until
// it closes, so writes on the client end never block.
func collectLines(conn net.Conn) <-chan []string {
	done := make(chan []string, 1)
	go func() {
		var lines []string
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		done <- lines
	}()
	return done
}

func fastOptions() SenderOptions {
	return SenderOptions{
		Addr:            "irc.test:6697",
		JoinSettleDelay: time.Millisecond,
		PreQuitDelay:    time.Millisecond,
		SendTimeout:     5 * time.Second,
	}
}

var testAuth = domain.ChatAuth{TwitchBotUsername: "announcebot", TwitchOauthToken: "tok123"}

func TestSend_WritesProtocolLinesInOrder(t *testing.T) {
	client, server := net.Pipe()
	lines := collectLines(server)

	sender := NewSender(pipeDialer{conn: client}, clockwork.NewRealClock(), fastOptions())
	receipt, err := sender.Send(context.Background(), testAuth, "#MyChan", "big win incoming")

	require.NoError(t, err)
	assert.Equal(t, domain.SendReceipt{Platform: "twitch", Channel: "mychan"}, receipt)

	assert.Equal(t, []string{
		"PASS oauth:tok123",
		"NICK announcebot",
		"JOIN #mychan",
		"PRIVMSG #mychan :big win incoming",
		"QUIT",
	}, <-lines)
}

func TestSend_FailsFastWithoutDialing(t *testing.T) {
	// A nil conn would panic if Send ever dialed.
	sender := NewSender(pipeDialer{}, clockwork.NewRealClock(), fastOptions())

	tests := []struct {
		name    string
		auth    domain.ChatAuth
		channel string
		message string
	}{
		{"missing username", domain.ChatAuth{TwitchOauthToken: "tok"}, "chan", "msg"},
		{"missing token", domain.ChatAuth{TwitchBotUsername: "bot"}, "chan", "msg"},
		{"missing channel", testAuth, "  ", "msg"},
		{"blank message", testAuth, "chan", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sender.Send(context.Background(), tt.auth, tt.channel, tt.message)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestSend_DialFailure(t *testing.T) {
	sender := NewSender(pipeDialer{err: errors.New("connection refused")}, clockwork.NewRealClock(), fastOptions())

	_, err := sender.Send(context.Background(), testAuth, "chan", "msg")

	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Equal(t, apperrors.TypeExternal, structuredErr.Type)
}

func TestSend_TimeoutClosesSocket(t *testing.T) {
	client, server := net.Pipe()
	lines := collectLines(server)

	opts := fastOptions()
	opts.JoinSettleDelay = time.Minute // never elapses within the timeout
	opts.SendTimeout = 20 * time.Millisecond

	sender := NewSender(pipeDialer{conn: client}, clockwork.NewRealClock(), opts)
	_, err := sender.Send(context.Background(), testAuth, "chan", "msg")

	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Equal(t, apperrors.TypeExternal, structuredErr.Type)

	// Socket must be closed on the failure path: the server-side reader
	// unblocks and no message line was ever written.
	collected := <-lines
	assert.NotContains(t, collected, "PRIVMSG #chan :msg")
}
