// Package proto implements the newline-delimited text protocol spoken on
// every client connection. One line is one command:
//
//	COMMAND param1 param2 :trailing text
//
// The trailing field begins at the first " :" and runs to the end of the
// line verbatim; it is the only place spaces and colons may appear.
package proto

import (
	"errors"
	"strings"
)

// Client → server commands.
const (
	CmdLogin      = "LOGIN"
	CmdMsgAll     = "MSG_ALL"
	CmdSpellCheck = "SPELL_CHECK"
	CmdQuiz       = "QUIZ"
	CmdQuizAnswer = "QUIZ_ANSWER"
	CmdPrivateMsg = "P_MSG"
	CmdJoinRoom   = "JOIN_ROOM"
	CmdLeaveRoom  = "LEAVE_ROOM"
	CmdRoomMsg    = "ROOM_MSG"
	CmdQuit       = "QUIT"
)

// Server → client commands.
const (
	CmdLoginSuccess = "LOGIN_SUCCESS"
	CmdLoginFail    = "LOGIN_FAIL"
	CmdUserList     = "USER_LIST"
	CmdMsgRecv      = "MSG_RECV"
	CmdRoomMsgRecv  = "ROOM_MSG_RECV"
	CmdJoinSuccess  = "JOIN_SUCCESS"
	CmdSpellResult  = "SPELL_RESULT"
)

// ErrMalformedLine reports a line that cannot be parsed into a command.
// Callers drop the line and keep reading; it is never fatal.
var ErrMalformedLine = errors.New("malformed protocol line")

// Message is one parsed protocol line.
type Message struct {
	Command     string
	Params      []string
	Trailing    string
	HasTrailing bool
}

// ParseLine parses a single line (without its newline) into a Message.
// The command is upper-cased; params keep their case; the trailing field is
// preserved byte for byte, including further spaces and colons.
func ParseLine(line string) (Message, error) {
	var msg Message

	head := line
	if idx := strings.Index(line, " :"); idx >= 0 {
		head = line[:idx]
		msg.Trailing = line[idx+2:]
		msg.HasTrailing = true
	}

	tokens := strings.Fields(head)
	if len(tokens) == 0 {
		return Message{}, ErrMalformedLine
	}

	msg.Command = strings.ToUpper(tokens[0])
	msg.Params = tokens[1:]
	return msg, nil
}

// Encode renders the message back into wire form, newline-terminated so that
// concatenated messages split cleanly on the receiving side.
func (m Message) Encode() string {
	var b strings.Builder
	b.WriteString(m.Command)
	for _, p := range m.Params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if m.HasTrailing {
		b.WriteString(" :")
		b.WriteString(m.Trailing)
	}
	b.WriteByte('\n')
	return b.String()
}

// Line is a convenience constructor for outbound messages with a trailing field.
func Line(command string, params []string, trailing string) string {
	return Message{Command: command, Params: params, Trailing: trailing, HasTrailing: true}.Encode()
}

// ValidIdentity reports whether s may be used as an identity, room name, or
// any other positional param: non-empty and free of the protocol's structural
// characters (space, ':', ',').
func ValidIdentity(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, " :,\t\r\n")
}
