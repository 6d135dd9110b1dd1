package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/dedupe"
	"github.com/rosterleague/roster-clash/internal/storage"
)

const (
	leaderboardLimit = 50
	historyLimit     = 20
)

type PlayerHandler struct {
	repo storage.Repository
}

func NewPlayerHandler(repo storage.Repository) *PlayerHandler {
	return &PlayerHandler{repo: repo}
}

type leaderboardRow struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"player_name"`
	Rating     int    `json:"rating"`
	Tier       string `json:"tier"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// ListLeaderboard returns the top ladder. Concurrent requests share one
// database read.
func (h *PlayerHandler) ListLeaderboard(c *gin.Context) {
	rows, err, _ := dedupe.LeaderboardGroup.Do("leaderboard", func() (interface{}, error) {
		users, err := h.repo.GetTopPlayers(leaderboardLimit)
		if err != nil {
			return nil, err
		}
		out := make([]leaderboardRow, 0, len(users))
		for i, u := range users {
			out = append(out, leaderboardRow{
				Rank:       i + 1,
				PlayerName: u.PlayerName,
				Rating:     u.Rating,
				Tier:       u.Tier,
				Wins:       u.Wins,
				Losses:     u.Losses,
			})
		}
		return out, nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetPlayerStats returns the session user's profile plus recent history.
func (h *PlayerHandler) GetPlayerStats(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
		return
	}
	user, err := h.repo.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	history, err := h.repo.GetHistoryByUser(userID, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player_name":  user.PlayerName,
		"rating":       user.Rating,
		"tier":         user.Tier,
		"points":       user.Points,
		"games_played": user.GamesPlayed,
		"wins":         user.Wins,
		"losses":       user.Losses,
		"win_streak":   user.WinStreak,
		"history":      history,
	})
}

// ListDecks returns the session user's decks.
func (h *PlayerHandler) ListDecks(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
		return
	}
	decks, err := h.repo.GetDecksByOwner(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchDecks})
		return
	}
	c.JSON(http.StatusOK, decks)
}

// GetDeck returns one deck, owner-checked.
func (h *PlayerHandler) GetDeck(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
		return
	}
	id, err := strconv.ParseUint(c.Param("deckID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidDeckID})
		return
	}
	deck, err := h.repo.GetDeckByID(uint(id))
	if err != nil || deck.OwnerID != userID {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrDeckNotFound})
		return
	}
	c.JSON(http.StatusOK, deck)
}
