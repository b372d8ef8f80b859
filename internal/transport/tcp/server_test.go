package tcp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/core"
	"github.com/Tail418/spellchat-server/internal/proto"
	"github.com/Tail418/spellchat-server/internal/spell"
)

func startTestServer(t *testing.T) string {
	t.Helper()

	logger := zerolog.Nop()
	engine := spell.New(
		map[string]struct{}{"this": {}, "is": {}, "good": {}, "the": {}},
		map[string]int{"this": 10, "is": 10, "good": 10, "the": 10},
	)
	dispatcher := core.NewDispatcher(core.NewRegistry(), core.NewRooms(), engine, &logger)

	srv := NewServer("127.0.0.1:0", dispatcher, 0, &logger)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Error("server did not stop")
		}
	})

	return srv.Addr().String()
}

type testConn struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dialTest(t *testing.T, addr string) *testConn {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testConn{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testConn) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("write %q: %v", line, err)
	}
}

// expect reads lines until one with the wanted command arrives.
func (c *testConn) expect(wantCmd string) (params []string, trailing string) {
	c.t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.conn.SetReadDeadline(deadline)
		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", wantCmd, err)
		}
		msg, err := proto.ParseLine(strings.TrimSuffix(line, "\n"))
		if err != nil {
			continue
		}
		if msg.Command == wantCmd {
			return msg.Params, msg.Trailing
		}
	}
	c.t.Fatalf("no %s line received", wantCmd)
	return nil, ""
}

// expectClosed asserts the server closes the connection.
func (c *testConn) expectClosed() {
	c.t.Helper()

	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, err := c.reader.ReadString('\n'); err != nil {
			return
		}
	}
}

func TestServerLoginScenario(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTest(t, addr)
	alice.send("LOGIN alice")
	alice.expect("LOGIN_SUCCESS")
	if _, trailing := alice.expect("USER_LIST"); trailing != "alice" {
		t.Fatalf("USER_LIST = %q, want alice", trailing)
	}

	// Duplicate identity: LOGIN_FAIL, then the server closes the socket.
	impostor := dialTest(t, addr)
	impostor.send("LOGIN alice")
	impostor.expect("LOGIN_FAIL")
	impostor.expectClosed()

	alice.send("JOIN_ROOM study")
	params, _ := alice.expect("JOIN_SUCCESS")
	if len(params) != 1 || params[0] != "study" {
		t.Fatalf("JOIN_SUCCESS params = %v", params)
	}

	// Room message with no other members delivers to nobody; the next
	// reply alice sees is her own spell check result.
	alice.send("ROOM_MSG study :hello")
	alice.send("SPELL_CHECK :Thiss is gud")
	if _, trailing := alice.expect("SPELL_RESULT"); trailing != "This is good" {
		t.Fatalf("SPELL_RESULT = %q", trailing)
	}
}

func TestServerRelayBetweenClients(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTest(t, addr)
	alice.send("LOGIN alice")
	alice.expect("LOGIN_SUCCESS")

	bob := dialTest(t, addr)
	bob.send("LOGIN bob")
	bob.expect("LOGIN_SUCCESS")
	if _, trailing := bob.expect("USER_LIST"); trailing != "alice,bob" {
		t.Fatalf("USER_LIST = %q, want alice,bob", trailing)
	}

	// Private message routes to bob only, tagged with the sender.
	alice.send("P_MSG bob :psst")
	params, trailing := bob.expect("MSG_RECV")
	if len(params) != 1 || params[0] != "dm-alice" || trailing != "psst" {
		t.Fatalf("MSG_RECV = %v %q", params, trailing)
	}

	// Room traffic reaches the other member and skips the sender.
	alice.send("JOIN_ROOM study")
	alice.expect("JOIN_SUCCESS")
	bob.send("JOIN_ROOM study")
	bob.expect("JOIN_SUCCESS")
	bob.send("ROOM_MSG study :good morning")
	params, trailing = alice.expect("ROOM_MSG_RECV")
	if len(params) != 2 || params[0] != "study" || params[1] != "bob" || trailing != "good morning" {
		t.Fatalf("ROOM_MSG_RECV = %v %q", params, trailing)
	}

	// QUIT tears alice down everywhere and tells bob.
	alice.send("QUIT")
	alice.expectClosed()
	if _, trailing := bob.expect("USER_LIST"); trailing != "bob" {
		t.Fatalf("USER_LIST after quit = %q, want bob", trailing)
	}
}

func TestServerAbruptDisconnectCleansUp(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTest(t, addr)
	alice.send("LOGIN alice")
	alice.expect("LOGIN_SUCCESS")

	bob := dialTest(t, addr)
	bob.send("LOGIN bob")
	bob.expect("LOGIN_SUCCESS")

	// Drop alice without QUIT; bob still learns about it.
	alice.conn.Close()
	if _, trailing := bob.expect("USER_LIST"); trailing != "bob" {
		t.Fatalf("USER_LIST after disconnect = %q, want bob", trailing)
	}
}

func TestServerCoalescedLines(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTest(t, addr)
	// Two commands in one write; the stream is newline-delimited, not
	// write-delimited.
	alice.send("LOGIN alice\nSPELL_CHECK :gud")
	alice.expect("LOGIN_SUCCESS")
	if _, trailing := alice.expect("SPELL_RESULT"); trailing != "good" {
		t.Fatalf("SPELL_RESULT = %q", trailing)
	}
}
