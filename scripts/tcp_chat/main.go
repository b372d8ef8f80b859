// Command tcp_chat is a minimal interactive client for manual testing of the
// line protocol. Plain input broadcasts; slash commands map to the protocol:
//
//	/spell <text>      SPELL_CHECK
//	/msg <user> <text> P_MSG
//	/join <room>       JOIN_ROOM
//	/leave <room>      LEAVE_ROOM
//	/room <room> <text> ROOM_MSG
//	/quiz <text>       QUIZ
//	/answer <text>     QUIZ_ANSWER
//	/quit              QUIT
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/Tail418/spellchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("tcp_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:5001", "server address")
	user := flag.String("user", "cli-user", "identity to log in with")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	send := func(command string, params []string, trailing string, hasTrailing bool) {
		msg := proto.Message{Command: command, Params: params, Trailing: trailing, HasTrailing: hasTrailing}
		if _, err := conn.Write([]byte(msg.Encode())); err != nil {
			log.Printf("send: %v", err)
		}
	}

	send(proto.CmdLogin, []string{*user}, "", false)
	fmt.Printf("Connected to %s as %s. Type text to broadcast, /quit to exit.\n", *addr, *user)

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(conn)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit":
			send(proto.CmdQuit, nil, "", false)
			<-done
			return nil
		case "/spell":
			send(proto.CmdSpellCheck, nil, rest, true)
		case "/quiz":
			send(proto.CmdQuiz, nil, rest, true)
		case "/answer":
			send(proto.CmdQuizAnswer, nil, rest, true)
		case "/msg":
			target, text, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: /msg <user> <text>")
				continue
			}
			send(proto.CmdPrivateMsg, []string{target}, text, true)
		case "/join":
			send(proto.CmdJoinRoom, []string{rest}, "", false)
		case "/leave":
			send(proto.CmdLeaveRoom, []string{rest}, "", false)
		case "/room":
			room, text, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: /room <room> <text>")
				continue
			}
			send(proto.CmdRoomMsg, []string{room}, text, true)
		default:
			send(proto.CmdMsgAll, []string{*user}, line, true)
		}
	}
	return scanner.Err()
}

func readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		msg, err := proto.ParseLine(scanner.Text())
		if err != nil {
			continue
		}
		switch msg.Command {
		case proto.CmdMsgRecv:
			fmt.Printf("[%s] %s\n", first(msg.Params), msg.Trailing)
		case proto.CmdRoomMsgRecv:
			if len(msg.Params) >= 2 {
				fmt.Printf("(%s) %s: %s\n", msg.Params[0], msg.Params[1], msg.Trailing)
			}
		case proto.CmdUserList:
			fmt.Printf("-- online: %s\n", msg.Trailing)
		case proto.CmdSpellResult:
			fmt.Printf("-- corrected: %s\n", msg.Trailing)
		case proto.CmdJoinSuccess:
			fmt.Printf("-- joined %s\n", first(msg.Params))
		case proto.CmdLoginSuccess:
			fmt.Println("-- logged in")
		case proto.CmdLoginFail:
			fmt.Printf("-- login failed: %s\n", msg.Trailing)
			return
		default:
			fmt.Printf("-- %s\n", strings.TrimSpace(scanner.Text()))
		}
	}
}

func first(params []string) string {
	if len(params) == 0 {
		return "?"
	}
	return params[0]
}
