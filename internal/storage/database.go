package storage

import (
	"github.com/rosterleague/roster-clash/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the sqlite database and keeps the schema updated via
// AutoMigrate. Card templates are seeded from configuration data on first
// run only; profiles, decks and match records accumulate at runtime.
func OpenAndMigrate(dataSourceName string, templates []game.CardTemplate) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.Team{},
		&game.CardTemplate{},
		&game.CardInstance{},
		&game.Deck{},
		&game.User{},
		&game.MatchRecord{},
		&game.MatchHistory{},
	)
	if err != nil {
		return nil, err
	}

	seedCardTemplates(db, templates)
	return db, nil
}

func seedCardTemplates(db *gorm.DB, templates []game.CardTemplate) {
	var count int64
	db.Model(&game.CardTemplate{}).Count(&count)
	if count > 0 || len(templates) == 0 {
		return
	}
	db.Create(&templates)
}
