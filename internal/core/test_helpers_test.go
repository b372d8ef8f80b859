package core

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/proto"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// mustLine waits for the next outbound line matching the wanted command,
// skipping others, and returns it parsed.
func mustLine(t *testing.T, c *Client, wantCmd string) proto.Message {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-c.Outbound():
			if !ok {
				t.Fatalf("outbound closed while waiting for %s", wantCmd)
			}
			msg, err := proto.ParseLine(strings.TrimSuffix(raw, "\n"))
			if err != nil {
				t.Fatalf("unparseable outbound line %q: %v", raw, err)
			}
			if msg.Command == wantCmd {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %s line received", wantCmd)
		}
	}
}

// noLine asserts that nothing is queued for the client.
func noLine(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.Outbound():
		t.Fatalf("unexpected outbound line %q", raw)
	default:
	}
}

// drainOutbound discards everything currently queued for the client.
func drainOutbound(c *Client) {
	for {
		select {
		case <-c.Outbound():
		default:
			return
		}
	}
}

type nopSpeller struct{}

func (nopSpeller) CorrectSentence(text string) string { return text }

type upperSpeller struct{}

func (upperSpeller) CorrectSentence(text string) string { return strings.ToUpper(text) }

func newDispatcherForTest() *Dispatcher {
	return NewDispatcher(NewRegistry(), NewRooms(), nopSpeller{}, testLogger())
}

func login(t *testing.T, d *Dispatcher, c *Client, identity string) {
	t.Helper()

	if quit := d.HandleLine(c, "LOGIN "+identity); quit {
		t.Fatalf("login of %q unexpectedly terminated the connection", identity)
	}
	mustLine(t, c, proto.CmdLoginSuccess)
	drainOutbound(c)
}
