package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/core"
)

// WSHandler upgrades HTTP connections and bridges them to the same command
// dispatcher as the TCP transport. Text frames carry one or more
// newline-terminated protocol lines; coalescing and fragmentation are
// tolerated exactly as on a raw byte stream.
type WSHandler struct {
	dispatcher *core.Dispatcher
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(dispatcher *core.Dispatcher, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{dispatcher: dispatcher, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(r.RemoteAddr, core.DefaultQueueSize)
	h.log.Info().
		Str("client_id", client.ID).
		Str("addr", client.Addr).
		Msg("ws connection accepted")

	var pump sync.WaitGroup
	pump.Add(1)
	go func() {
		defer pump.Done()
		h.writePump(ctx, conn, client)
	}()

	err = h.readLoop(ctx, conn, client)

	// Close the queue before cancelling the context so queued replies
	// (LOGIN_FAIL in particular) still flush to the peer.
	h.dispatcher.Disconnect(client)
	client.Close()
	pump.Wait()

	status := websocket.StatusNormalClosure
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
		if s := websocket.CloseStatus(err); s == -1 {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("ws read loop ended")
		}
	}
	conn.Close(status, "closing")
}

// readLoop feeds every line of every text frame to the dispatcher until the
// peer goes away or the dispatcher requests a close.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}
			if quit := h.dispatcher.HandleLine(client, line); quit {
				return nil
			}
		}
	}
}

// writePump forwards queued outbound lines as text frames, flushing what is
// already queued when the client closes.
func (h *WSHandler) writePump(ctx context.Context, conn *websocket.Conn, client *core.Client) {
	for line := range client.Outbound() {
		if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
			h.log.Debug().
				Err(err).
				Str("client_id", client.ID).
				Msg("ws write failed")
			return
		}
	}
}
