package storage

import (
	"errors"

	"github.com/rosterleague/roster-clash/internal/game"
)

// Deck eligibility failures surfaced to queue-join validation.
var (
	ErrNoActiveDeck   = errors.New("no active deck")
	ErrDeckIncomplete = errors.New("deck has empty position slots")
	ErrDeckOverCap    = errors.New("deck exceeds the salary cap")
	ErrDeckNotFound   = errors.New("deck not found")
	ErrUserNotFound   = errors.New("user not found")
)

type Repository interface {
	// Identity and profile
	UpsertUser(email, uuid, name string) error
	GetUserByEmail(email string) (*game.User, error)
	GetUserByID(id uint) (*game.User, error)
	SaveUser(u *game.User) error
	// Leaderboard
	GetTopPlayers(limit int) ([]game.User, error)

	// Decks
	GetDecksByOwner(userID uint) ([]game.Deck, error)
	GetDeckByID(id uint) (*game.Deck, error)
	// EligibleDeckSnapshot resolves the owner's active deck into a frozen
	// snapshot, enforcing completeness and the salary cap. This is the
	// deck/eligibility seam called once before a queue join is accepted.
	EligibleDeckSnapshot(userID uint, salaryCap int) (*game.DeckSnapshot, error)
	// RandomDeckSnapshot assembles a synthetic AI deck: one random card
	// template per position, unenhanced.
	RandomDeckSnapshot() (*game.DeckSnapshot, error)

	// Settlement: persists the match record, per-participant history rows
	// and updated profiles as a single transaction.
	SaveMatchOutcome(record *game.MatchRecord, histories []game.MatchHistory, users []*game.User) error
	GetHistoryByUser(userID uint, limit int) ([]game.MatchHistory, error)
}
