package twitch

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/streamhaus/chatbridge/internal/domain"
	apperrors "github.com/streamhaus/chatbridge/internal/errors"
	"github.com/streamhaus/chatbridge/internal/logging"
)

// Send timing defaults. The chat network has no join acknowledgment a client
// can wait on; the settle delays are a pragmatic substitute. Shortening them
// risks the message being dropped before the join completes.
const (
	DefaultJoinSettleDelay = 350 * time.Millisecond
	DefaultPreQuitDelay    = 250 * time.Millisecond
	DefaultSendTimeout     = 4500 * time.Millisecond
)

// SenderOptions tune a Sender. Zero fields take the defaults above.
type SenderOptions struct {
	Addr            string
	JoinSettleDelay time.Duration
	PreQuitDelay    time.Duration
	SendTimeout     time.Duration
}

// Sender delivers single messages over transient IRC connections: connect,
// authenticate, join, say, quit. No state survives a call.
type Sender struct {
	dialer Dialer
	clock  clockwork.Clock
	opts   SenderOptions
}

func NewSender(dialer Dialer, clock clockwork.Clock, opts SenderOptions) *Sender {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.JoinSettleDelay == 0 {
		opts.JoinSettleDelay = DefaultJoinSettleDelay
	}
	if opts.PreQuitDelay == 0 {
		opts.PreQuitDelay = DefaultPreQuitDelay
	}
	if opts.SendTimeout == 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	return &Sender{dialer: dialer, clock: clock, opts: opts}
}

// Send posts one message to one channel. It fails fast on missing
// credentials or a blank message, and closes the socket on every path.
func (s *Sender) Send(ctx context.Context, auth domain.ChatAuth, channel, message string) (domain.SendReceipt, error) {
	receipt := domain.SendReceipt{Platform: "twitch", Channel: channel}

	if auth.TwitchBotUsername == "" {
		return receipt, apperrors.ValidationError("twitch bot username missing")
	}
	token := NormalizeOAuthToken(auth.TwitchOauthToken)
	if token == "" {
		return receipt, apperrors.ValidationError("twitch oauth token missing")
	}
	channel = domain.NormalizeTwitchChannel(channel)
	if channel == "" {
		return receipt, apperrors.ValidationError("twitch channel missing")
	}
	message = sanitizeMessage(message)
	if message == "" {
		return receipt, apperrors.ValidationError("message is empty")
	}
	receipt.Channel = channel

	ctx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()

	conn, err := s.dialer.DialContext(ctx, s.opts.Addr)
	if err != nil {
		return receipt, apperrors.ExternalError("failed to connect to twitch chat", err).
			WithField("channel", channel)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Login and join are strictly ordered; the server processes them in
	// sequence on the same connection.
	for _, line := range []string{
		"PASS " + token,
		"NICK " + auth.TwitchBotUsername,
		"JOIN #" + channel,
	} {
		if err := writeLine(conn, line); err != nil {
			return receipt, apperrors.ExternalError("failed to write protocol line", err).
				WithField("channel", channel)
		}
	}

	if err := s.wait(ctx, s.opts.JoinSettleDelay); err != nil {
		return receipt, err
	}

	if err := writeLine(conn, fmt.Sprintf("PRIVMSG #%s :%s", channel, message)); err != nil {
		return receipt, apperrors.ExternalError("failed to send message", err).
			WithField("channel", channel)
	}

	if err := s.wait(ctx, s.opts.PreQuitDelay); err != nil {
		return receipt, err
	}

	if err := writeLine(conn, "QUIT"); err != nil {
		// The message line was already written; a failed quit is not worth
		// failing the send over.
		logging.WithChannel("twitch", channel).DebugContext(ctx, "Quit line write failed", "error", err)
	}

	return receipt, nil
}

func (s *Sender) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return apperrors.ExternalError("twitch send timed out", ctx.Err())
	}
}

func writeLine(conn net.Conn, line string) error {
	_, err := conn.Write([]byte(line + lineTerminator))
	return err
}
