// Package twitch implements the Twitch IRC wire protocol: line grammar
// shared by the one-shot sender and the chat reader, and the raw TLS dialer.
package twitch

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
)

// DefaultAddr is the standard Twitch IRC TLS endpoint.
const DefaultAddr = "irc.chat.twitch.tv:6697"

// lineTerminator per RFC 1459; every outbound protocol line ends with it.
const lineTerminator = "\r\n"

// Dialer opens raw connections to the chat network. Tests inject pipe-backed
// implementations.
type Dialer interface {
	DialContext(ctx context.Context, addr string) (net.Conn, error)
}

// TLSDialer dials the chat network over TLS.
type TLSDialer struct{}

func (TLSDialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	d := &tls.Dialer{}
	return d.DialContext(ctx, "tcp", addr)
}

// Message is one inbound chat message parsed from a PRIVMSG line.
type Message struct {
	Username string
	Channel  string
	Text     string
}

// IsPing reports whether an inbound line is a server keep-alive ping.
func IsPing(line string) bool {
	return line == "PING" || strings.HasPrefix(line, "PING ") || strings.HasPrefix(line, "PING:")
}

// PongFor builds the pong reply answering the given ping line.
func PongFor(line string) string {
	return "PONG" + strings.TrimPrefix(line, "PING")
}

// ParsePrivMsg parses an inbound line of the shape
//
//	:nick!user@host PRIVMSG #channel :message text
//
// returning (msg, true) on a match. Any other line shape returns false and
// is ignored by callers.
func ParsePrivMsg(line string) (Message, bool) {
	if !strings.HasPrefix(line, ":") {
		return Message{}, false
	}

	prefixEnd := strings.Index(line, " ")
	if prefixEnd < 0 {
		return Message{}, false
	}
	prefix := line[1:prefixEnd]

	rest := line[prefixEnd+1:]
	if !strings.HasPrefix(rest, "PRIVMSG ") {
		return Message{}, false
	}
	rest = strings.TrimPrefix(rest, "PRIVMSG ")

	sep := strings.Index(rest, " :")
	if sep < 0 {
		return Message{}, false
	}
	channel := strings.TrimPrefix(rest[:sep], "#")
	text := rest[sep+2:]

	username := prefix
	if bang := strings.Index(prefix, "!"); bang >= 0 {
		username = prefix[:bang]
	}

	if username == "" || channel == "" {
		return Message{}, false
	}

	return Message{Username: username, Channel: channel, Text: text}, true
}

// NormalizeOAuthToken ensures the token carries exactly one "oauth:" prefix,
// the form the chat network expects in the PASS line.
func NormalizeOAuthToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return "oauth:" + strings.TrimPrefix(token, "oauth:")
}

// sanitizeMessage strips line breaks so user text cannot inject protocol
// lines into the stream.
func sanitizeMessage(message string) string {
	message = strings.ReplaceAll(message, "\r\n", " ")
	message = strings.ReplaceAll(message, "\r", " ")
	message = strings.ReplaceAll(message, "\n", " ")
	return strings.TrimSpace(message)
}
