package storage

import (
	"fmt"

	"github.com/rosterleague/roster-clash/internal/dedupe"
	"github.com/rosterleague/roster-clash/internal/game"
	"gorm.io/gorm"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) UpsertUser(email, uuid, name string) error {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			u = game.User{Email: email, PlayerUUID: uuid, PlayerName: name, Rating: 1200, Tier: string(game.TierForRating(1200))}
		} else {
			return err
		}
	}
	u.PlayerName = name
	u.PlayerUUID = uuid
	return withRetry("upsert_user", func() error { return r.db.Save(&u).Error })
}

func (r *sqliteRepository) GetUserByEmail(email string) (*game.User, error) {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) GetUserByID(id uint) (*game.User, error) {
	var u game.User
	if err := r.db.First(&u, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) SaveUser(u *game.User) error {
	return withRetry("save_user", func() error { return r.db.Save(u).Error })
}

// GetTopPlayers returns top N players ordered by rating desc, then wins desc.
func (r *sqliteRepository) GetTopPlayers(limit int) ([]game.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []game.User
	if err := r.db.Model(&game.User{}).
		Order("rating DESC").
		Order("wins DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *sqliteRepository) GetDecksByOwner(userID uint) ([]game.Deck, error) {
	var decks []game.Deck
	if err := r.db.Where("owner_id = ?", userID).Order("created_at desc").Find(&decks).Error; err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *sqliteRepository) GetDeckByID(id uint) (*game.Deck, error) {
	var d game.Deck
	if err := r.db.First(&d, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &d, nil
}

// EligibleDeckSnapshot resolves the active deck into a frozen stat view.
// Concurrent resolutions for the same user collapse through singleflight.
func (r *sqliteRepository) EligibleDeckSnapshot(userID uint, salaryCap int) (*game.DeckSnapshot, error) {
	v, err, _ := dedupe.SnapshotGroup.Do(fmt.Sprintf("user:%d", userID), func() (interface{}, error) {
		return r.resolveActiveDeck(userID, salaryCap)
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.DeckSnapshot), nil
}

func (r *sqliteRepository) resolveActiveDeck(userID uint, salaryCap int) (*game.DeckSnapshot, error) {
	var deck game.Deck
	if err := r.db.Where("owner_id = ? AND is_active = ?", userID, true).First(&deck).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNoActiveDeck
		}
		return nil, err
	}

	snap := &game.DeckSnapshot{DeckID: deck.ID, OwnerID: userID}
	salary := 0
	for _, pos := range game.Positions {
		cardID := deck.SlotCardID(pos)
		if cardID == nil {
			return nil, ErrDeckIncomplete
		}
		var inst game.CardInstance
		if err := r.db.Preload("Template.Teams").First(&inst, *cardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrDeckIncomplete
			}
			return nil, err
		}
		salary += inst.Template.Salary
		snap.Cards = append(snap.Cards, snapshotCard(pos, &inst.Template, inst.EnhancementLevel))
	}
	if salaryCap > 0 && salary > salaryCap {
		return nil, ErrDeckOverCap
	}
	return snap, nil
}

// RandomDeckSnapshot builds the synthetic AI opponent deck: one random
// template per position, unenhanced.
func (r *sqliteRepository) RandomDeckSnapshot() (*game.DeckSnapshot, error) {
	snap := &game.DeckSnapshot{}
	for _, pos := range game.Positions {
		var tpl game.CardTemplate
		if err := r.db.Preload("Teams").
			Where("position = ?", pos).
			Order("RANDOM()").
			First(&tpl).Error; err != nil {
			return nil, fmt.Errorf("no card template for position %s: %w", pos, err)
		}
		snap.Cards = append(snap.Cards, snapshotCard(pos, &tpl, 0))
	}
	return snap, nil
}

func snapshotCard(pos game.Position, tpl *game.CardTemplate, level int) game.SnapshotCard {
	teams := make([]string, 0, len(tpl.Teams))
	for _, t := range tpl.Teams {
		teams = append(teams, t.Name)
	}
	attrs := make(map[game.Attribute]int, 8)
	for _, a := range []game.Attribute{
		game.AttrLaning, game.AttrMechanics, game.AttrAggression,
		game.AttrTeamfight, game.AttrPositioning, game.AttrVision,
		game.AttrMacro, game.AttrMental,
	} {
		attrs[a] = tpl.AttributeValue(a)
	}
	return game.SnapshotCard{
		Slot:             pos,
		Name:             tpl.Name,
		Teams:            teams,
		SeasonTag:        tpl.SeasonTag,
		EnhancementLevel: level,
		Overall:          tpl.Overall,
		Attributes:       attrs,
	}
}

// SaveMatchOutcome writes the record, history rows and profile updates in
// one transaction so settlement lands exactly once or not at all.
func (r *sqliteRepository) SaveMatchOutcome(record *game.MatchRecord, histories []game.MatchHistory, users []*game.User) error {
	return withRetry("save_match_outcome", func() error {
		return r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			for i := range histories {
				histories[i].MatchRecordID = record.ID
				if err := tx.Create(&histories[i]).Error; err != nil {
					return err
				}
			}
			for _, u := range users {
				if err := tx.Save(u).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *sqliteRepository) GetHistoryByUser(userID uint, limit int) ([]game.MatchHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []game.MatchHistory
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
