package core

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/proto"
)

// systemIdentity tags server-originated notices in MSG_RECV/ROOM_MSG_RECV.
const systemIdentity = "[SYSTEM]"

// Speller is the spelling service the dispatcher calls for SPELL_CHECK.
type Speller interface {
	CorrectSentence(text string) string
}

// Dispatcher interprets parsed commands against connection state and the
// shared registries. One dispatcher serves all connections; per-connection
// state is the registry entry (absent = unauthenticated).
type Dispatcher struct {
	registry *Registry
	rooms    *Rooms
	speller  Speller
	log      *zerolog.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(registry *Registry, rooms *Rooms, speller Speller, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		rooms:    rooms,
		speller:  speller,
		log:      logger,
	}
}

// HandleLine processes one inbound line from the client. It returns true
// when the transport must close the connection: after QUIT, or after a
// failed LOGIN (no further reads are protocol-valid then). Malformed lines
// and unknown commands are dropped, never fatal.
func (d *Dispatcher) HandleLine(c *Client, raw string) bool {
	msg, err := proto.ParseLine(raw)
	if err != nil {
		d.log.Debug().
			Str("client_id", c.ID).
			Str("code", ErrCodeMalformedLine).
			Msg("dropping unparseable line")
		return false
	}

	if msg.Command == proto.CmdLogin {
		return d.handleLogin(c, msg)
	}

	identity, ok := d.registry.Identity(c)
	if !ok {
		// Everything besides LOGIN requires an authenticated session.
		d.log.Info().
			Str("client_id", c.ID).
			Str("command", msg.Command).
			Str("code", ErrCodeUnauthenticated).
			Msg("dropping command from unauthenticated connection")
		return false
	}

	switch msg.Command {
	case proto.CmdSpellCheck:
		d.handleSpellCheck(c, msg)
	case proto.CmdQuiz:
		d.broadcastTagged(c, "quiz-"+identity, msg.Trailing)
	case proto.CmdQuizAnswer:
		d.broadcastTagged(c, "quiz-answer-"+identity, msg.Trailing)
	case proto.CmdMsgAll:
		// The id param is advisory; the registry identity stamps the
		// broadcast so the tag cannot be spoofed.
		d.broadcastTagged(c, identity, msg.Trailing)
	case proto.CmdPrivateMsg:
		d.handlePrivateMsg(c, identity, msg)
	case proto.CmdJoinRoom:
		d.handleJoinRoom(c, identity, msg)
	case proto.CmdLeaveRoom:
		d.handleLeaveRoom(c, identity, msg)
	case proto.CmdRoomMsg:
		d.handleRoomMsg(c, identity, msg)
	case proto.CmdQuit:
		return true
	default:
		d.log.Info().
			Str("client_id", c.ID).
			Str("identity", identity).
			Str("line", raw).
			Msg("unknown command")
	}
	return false
}

// Disconnect is the terminal cleanup path shared by QUIT, EOF, and read
// errors: purge room memberships, drop the session, and tell everyone left.
// Purge runs first so the client can never appear in a room broadcast after
// its session is gone. Idempotent.
func (d *Dispatcher) Disconnect(c *Client) {
	d.rooms.Purge(c)
	identity, ok := d.registry.Unregister(c)
	if !ok {
		return
	}
	d.log.Info().
		Str("client_id", c.ID).
		Str("identity", identity).
		Msg("session closed")
	d.broadcastUserList()
}

func (d *Dispatcher) handleLogin(c *Client, msg proto.Message) bool {
	if _, logged := d.registry.Identity(c); logged {
		d.log.Info().Str("client_id", c.ID).Msg("dropping LOGIN from authenticated connection")
		return false
	}

	var identity string
	if len(msg.Params) > 0 {
		identity = msg.Params[0]
	}

	if err := d.registry.Register(identity, c); err != nil {
		reason := "that identity is already in use"
		code := ErrCodeIdentityTaken
		if errors.Is(err, ErrInvalidIdentity) {
			reason = "invalid identity"
			code = ErrCodeInvalidIdentity
		}
		Deliver(d.log, c, proto.Line(proto.CmdLoginFail, nil, reason))
		d.log.Info().
			Str("client_id", c.ID).
			Str("identity", identity).
			Str("code", code).
			Msg("login rejected")
		return true
	}

	d.log.Info().
		Str("client_id", c.ID).
		Str("identity", identity).
		Msg("login accepted")
	Deliver(d.log, c, proto.Line(proto.CmdLoginSuccess, nil, "connected to the server"))
	d.broadcastUserList()
	return false
}

func (d *Dispatcher) handleSpellCheck(c *Client, msg proto.Message) {
	corrected := d.speller.CorrectSentence(msg.Trailing)
	Deliver(d.log, c, proto.Line(proto.CmdSpellResult, nil, corrected))
}

// broadcastTagged sends MSG_RECV with the given sender tag to everyone
// except the sender.
func (d *Dispatcher) broadcastTagged(sender *Client, tag, text string) {
	line := proto.Line(proto.CmdMsgRecv, []string{tag}, text)
	FanOut(d.log, d.registry.Clients(sender), line, nil)
}

func (d *Dispatcher) handlePrivateMsg(c *Client, identity string, msg proto.Message) {
	if len(msg.Params) == 0 {
		d.log.Debug().Str("client_id", c.ID).Msg("P_MSG without target")
		return
	}
	target := msg.Params[0]
	targetClient, ok := d.registry.Client(target)
	if !ok {
		d.log.Debug().
			Str("identity", identity).
			Str("target", target).
			Str("code", ErrCodeUnknownRecipient).
			Msg("private message to unknown identity")
		Deliver(d.log, c, proto.Line(proto.CmdMsgRecv, []string{systemIdentity}, "could not find user "+target))
		return
	}
	Deliver(d.log, targetClient, proto.Line(proto.CmdMsgRecv, []string{"dm-" + identity}, msg.Trailing))
}

func (d *Dispatcher) handleJoinRoom(c *Client, identity string, msg proto.Message) {
	room, ok := d.roomParam(c, msg)
	if !ok {
		return
	}
	prior := d.rooms.Join(room, c)
	notice := proto.Line(proto.CmdRoomMsgRecv, []string{room, systemIdentity}, identity+" has joined the room")
	FanOut(d.log, prior, notice, nil)
	Deliver(d.log, c, proto.Line(proto.CmdJoinSuccess, []string{room}, "joined room "+room))
}

func (d *Dispatcher) handleLeaveRoom(c *Client, identity string, msg proto.Message) {
	room, ok := d.roomParam(c, msg)
	if !ok {
		return
	}
	remaining, left := d.rooms.Leave(room, c)
	if !left {
		return
	}
	notice := proto.Line(proto.CmdRoomMsgRecv, []string{room, systemIdentity}, identity+" has left the room")
	FanOut(d.log, remaining, notice, nil)
}

func (d *Dispatcher) handleRoomMsg(c *Client, identity string, msg proto.Message) {
	room, ok := d.roomParam(c, msg)
	if !ok {
		return
	}
	if !d.rooms.Member(room, c) {
		return
	}
	line := proto.Line(proto.CmdRoomMsgRecv, []string{room, identity}, msg.Trailing)
	FanOut(d.log, d.rooms.Members(room, c), line, nil)
}

func (d *Dispatcher) roomParam(c *Client, msg proto.Message) (string, bool) {
	if len(msg.Params) == 0 || !proto.ValidIdentity(msg.Params[0]) {
		d.log.Debug().
			Str("client_id", c.ID).
			Str("command", msg.Command).
			Msg("missing or invalid room name")
		return "", false
	}
	return msg.Params[0], true
}

func (d *Dispatcher) broadcastUserList() {
	line := proto.Line(proto.CmdUserList, nil, strings.Join(d.registry.Identities(), ","))
	FanOut(d.log, d.registry.Clients(nil), line, nil)
}
