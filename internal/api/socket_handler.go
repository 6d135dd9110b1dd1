package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/game"
	"github.com/rosterleague/roster-clash/internal/logging"
	"github.com/rosterleague/roster-clash/internal/match"
	"github.com/rosterleague/roster-clash/internal/queue"
	"github.com/rosterleague/roster-clash/internal/realtime"
	"github.com/rosterleague/roster-clash/internal/storage"
)

// SocketHandler upgrades authenticated clients and routes their envelope
// events to the queue manager and the live match registry.
type SocketHandler struct {
	hub     *realtime.Hub
	queues  *queue.Manager
	matches *match.Registry
	repo    storage.Repository
	cfg     *config.Config
}

func NewSocketHandler(hub *realtime.Hub, queues *queue.Manager, matches *match.Registry, repo storage.Repository, cfg *config.Config) *SocketHandler {
	return &SocketHandler{hub: hub, queues: queues, matches: matches, repo: repo, cfg: cfg}
}

type queueJoinRequest struct {
	Mode string `json:"mode"`
}

type strategyRequest struct {
	Strategy string `json:"strategy"`
}

func (h *SocketHandler) HandleSocket(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
		return
	}
	username := c.GetString(ctxUserName)

	ws, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket accept failed", err, logging.Fields{constants.LogFieldUserID: userID})
		return
	}

	// One live connection per user; a fresh login evicts the previous one
	// and its handler cleans up queue and match state as it unwinds.
	if prev, ok := h.hub.ConnByUser(userID); ok {
		logging.Info("duplicate session, dropping previous connection", logging.Fields{
			constants.LogFieldUserID: userID,
			constants.LogFieldConnID: prev.ID,
		})
		h.hub.Unregister(prev.ID)
	}

	conn := h.hub.Register(ws, userID, username)
	defer func() {
		h.queues.Leave(conn.ID)
		h.matches.HandleDisconnect(conn.ID)
		h.hub.Unregister(conn.ID)
	}()

	ctx := c.Request.Context()
	for {
		env, err := conn.ReadEnvelope(ctx)
		if err != nil {
			return
		}
		h.dispatch(conn, env)
	}
}

func (h *SocketHandler) dispatch(conn *realtime.Conn, env realtime.ClientEnvelope) {
	switch env.Event {
	case constants.EventQueueJoin:
		var req queueJoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.sendError(conn.ID, constants.ErrInvalidRequest)
			return
		}
		h.handleQueueJoin(conn, game.Mode(req.Mode))
	case constants.EventQueueLeave:
		h.queues.Leave(conn.ID)
	case constants.EventStrategy:
		var req strategyRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.sendError(conn.ID, constants.ErrInvalidRequest)
			return
		}
		s, ok := h.matches.SessionFor(conn.ID)
		if !ok {
			h.sendError(conn.ID, constants.ErrNoActiveSession)
			return
		}
		if err := s.SubmitStrategy(conn.ID, req.Strategy); err != nil {
			h.sendError(conn.ID, constants.ErrInvalidStrategy)
		}
	case constants.EventForfeit:
		s, ok := h.matches.SessionFor(conn.ID)
		if !ok {
			h.sendError(conn.ID, constants.ErrNoActiveSession)
			return
		}
		s.Forfeit(conn.ID)
	default:
		logging.Info("unknown websocket event", logging.Fields{
			constants.LogFieldConnID: conn.ID,
			constants.LogFieldEvent:  env.Event,
		})
	}
}

// handleQueueJoin runs the eligibility gate and hands a snapshot-carrying
// entry to the queue manager.
func (h *SocketHandler) handleQueueJoin(conn *realtime.Conn, mode game.Mode) {
	if h.matches.UserInMatch(conn.UserID) {
		h.sendError(conn.ID, constants.ErrAlreadyInMatch)
		return
	}

	snap, err := h.repo.EligibleDeckSnapshot(conn.UserID, h.cfg.SalaryCap)
	if err != nil {
		h.sendError(conn.ID, deckErrorMessage(err))
		return
	}
	user, err := h.repo.GetUserByID(conn.UserID)
	if err != nil {
		h.sendError(conn.ID, constants.ErrFailedFetchStats)
		return
	}

	entry := &queue.Entry{
		ConnectionID: conn.ID,
		UserID:       conn.UserID,
		Username:     user.PlayerName,
		Rating:       user.Rating,
		Tier:         game.Tier(user.Tier),
		DeckID:       snap.DeckID,
		Snapshot:     snap,
	}
	if err := h.queues.Join(mode, entry); err != nil {
		switch {
		case errors.Is(err, queue.ErrUnknownMode):
			h.sendError(conn.ID, constants.ErrUnknownQueueMode)
		default:
			h.sendError(conn.ID, err.Error())
		}
	}
}

func deckErrorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrNoActiveDeck):
		return constants.ErrNoActiveDeck
	case errors.Is(err, storage.ErrDeckIncomplete):
		return constants.ErrDeckIncomplete
	case errors.Is(err, storage.ErrDeckOverCap):
		return constants.ErrDeckOverCap
	}
	return constants.ErrInvalidRequest
}

func (h *SocketHandler) sendError(connID, msg string) {
	h.hub.Send(connID, constants.EventQueueError, map[string]string{constants.JSONKeyError: msg})
}
