package core

import "github.com/rs/zerolog"

// Deliver sends one line to one client. A failed send (closed client or full
// queue) is logged and reported, never propagated: the dead connection is
// left for its own read loop to detect and reap.
func Deliver(logger *zerolog.Logger, c *Client, line string) bool {
	if c.TrySend(line) {
		return true
	}
	logger.Warn().
		Str("client_id", c.ID).
		Str("addr", c.Addr).
		Msg("dropped outbound line")
	return false
}

// FanOut sends the same line to every client in the slice, skipping exclude.
// Each recipient is attempted independently; one failure never aborts
// delivery to the rest and is never surfaced to the sender.
func FanOut(logger *zerolog.Logger, clients []*Client, line string, exclude *Client) {
	for _, c := range clients {
		if c == exclude {
			continue
		}
		Deliver(logger, c, line)
	}
}
