// Package http exposes two things over one HTTP server: a WebSocket bridge
// at /ws that speaks the exact same line protocol as the TCP transport, and
// a small read-only status API over the shared registries.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/core"
)

// Speller mirrors the dispatcher's spelling dependency for the status API.
type Speller interface {
	CorrectSentence(text string) string
}

// Deps are the collaborators the HTTP surface reads from.
type Deps struct {
	Dispatcher *core.Dispatcher
	Registry   *core.Registry
	Rooms      *core.Rooms
	Speller    Speller
}

// NewServer builds the HTTP server with the status API and the /ws bridge.
func NewServer(addr string, deps Deps, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &statusHandlers{deps: deps, log: logger}
	router.GET("/health", h.health)
	router.GET("/api/users", h.users)
	router.GET("/api/rooms", h.rooms)
	router.POST("/api/spellcheck", h.spellcheck)

	router.GET("/ws", gin.WrapH(NewWSHandler(deps.Dispatcher, logger)))

	return &http.Server{
		Addr:    addr,
		Handler: router,
	}
}

type statusHandlers struct {
	deps Deps
	log  *zerolog.Logger
}

func (h *statusHandlers) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// UsersResponse lists everyone currently online.
type UsersResponse struct {
	Users []string `json:"users"`
}

func (h *statusHandlers) users(c *gin.Context) {
	c.JSON(http.StatusOK, UsersResponse{Users: h.deps.Registry.Identities()})
}

// RoomInfo is one room in the rooms listing.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// RoomsResponse lists active rooms with member counts.
type RoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}

func (h *statusHandlers) rooms(c *gin.Context) {
	counts := h.deps.Rooms.Counts()
	rooms := make([]RoomInfo, 0, len(counts))
	for name, members := range counts {
		rooms = append(rooms, RoomInfo{Name: name, Members: members})
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms})
}

// SpellcheckRequest is the spellcheck request body.
type SpellcheckRequest struct {
	Text string `json:"text" binding:"required"`
}

// SpellcheckResponse carries the corrected sentence.
type SpellcheckResponse struct {
	Corrected string `json:"corrected"`
}

// ErrorResponse is the error body for bad requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *statusHandlers) spellcheck(c *gin.Context) {
	var req SpellcheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}
	c.JSON(http.StatusOK, SpellcheckResponse{Corrected: h.deps.Speller.CorrectSentence(req.Text)})
}
