package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rosterleague/roster-clash/internal/game"
)

// rawConfig mirrors the JSON file layout. Durations are given in seconds.
type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`

	Matchmaking *struct {
		RatingWindow           int `json:"rating_window"`
		RematchCooldownSec     int `json:"rematch_cooldown_seconds"`
		PracticeAutoMatchSec   int `json:"practice_auto_match_seconds"`
		QueueLimit             int `json:"queue_limit"`
	} `json:"matchmaking"`

	Match *struct {
		LineupPreviewSec  int     `json:"lineup_preview_seconds"`
		RoundTimerSec     int     `json:"round_timer_seconds"`
		InterRoundSec     int     `json:"inter_round_seconds"`
		LiveJitterPercent float64 `json:"live_jitter_percent"`
	} `json:"match"`

	Power *struct {
		BlendOverallWeight float64 `json:"blend_overall_weight"`
		BlendStatWeight    float64 `json:"blend_stat_weight"`
	} `json:"power"`

	Rewards *struct {
		EloKFactor         int `json:"elo_k_factor"`
		RatingFloor        int `json:"rating_floor"`
		RankedWinPoints    int `json:"ranked_win_points"`
		RankedLossPoints   int `json:"ranked_loss_points"`
		PracticeWinPoints  int `json:"practice_win_points"`
		PracticeLossPoints int `json:"practice_loss_points"`
		StreakBonusStep    int `json:"streak_bonus_step"`
		StreakBonusCap     int `json:"streak_bonus_cap"`
		HappyHourStart     int `json:"happy_hour_start"`
		HappyHourEnd       int `json:"happy_hour_end"`
		HappyHourPercent   int `json:"happy_hour_percent"`
	} `json:"rewards"`

	Deck *struct {
		SalaryCap int `json:"salary_cap"`
	} `json:"deck"`

	CardList []rawCard `json:"card_list"`
}

// rawCard is one card template in the configuration file. Teams are plain
// names; they become team rows on first seed.
type rawCard struct {
	Name      string   `json:"name"`
	Position  string   `json:"position"`
	SeasonTag string   `json:"season_tag"`
	Teams     []string `json:"teams"`
	Overall   int      `json:"overall"`
	Salary    int      `json:"salary"`

	Laning      int `json:"laning"`
	Mechanics   int `json:"mechanics"`
	Aggression  int `json:"aggression"`
	Teamfight   int `json:"teamfight"`
	Positioning int `json:"positioning"`
	Vision      int `json:"vision"`
	Macro       int `json:"macro"`
	Mental      int `json:"mental"`
}

func (rc rawCard) template() game.CardTemplate {
	teams := make([]game.Team, 0, len(rc.Teams))
	for _, name := range rc.Teams {
		teams = append(teams, game.Team{Name: name})
	}
	return game.CardTemplate{
		Name:        rc.Name,
		Position:    game.Position(rc.Position),
		SeasonTag:   rc.SeasonTag,
		Teams:       teams,
		Overall:     rc.Overall,
		Salary:      rc.Salary,
		Laning:      rc.Laning,
		Mechanics:   rc.Mechanics,
		Aggression:  rc.Aggression,
		Teamfight:   rc.Teamfight,
		Positioning: rc.Positioning,
		Vision:      rc.Vision,
		Macro:       rc.Macro,
		Mental:      rc.Mental,
	}
}

// Config carries every operational tunable with sane defaults. All values
// are read once at startup; nothing reloads at runtime.
type Config struct {
	ServerAddress string

	RatingWindow            int
	RematchCooldown         time.Duration
	PracticeAutoMatchIn     time.Duration
	QueueLimit              int

	LineupPreviewDelay time.Duration
	RoundTimer         time.Duration
	InterRoundPause    time.Duration
	LiveJitterPercent  float64

	BlendOverallWeight float64
	BlendStatWeight    float64

	EloKFactor         int
	RatingFloor        int
	RankedWinPoints    int
	RankedLossPoints   int
	PracticeWinPoints  int
	PracticeLossPoints int
	StreakBonusStep    int
	StreakBonusCap     int
	HappyHourStart     int
	HappyHourEnd       int
	HappyHourPercent   int

	SalaryCap int

	// Cards seed the template table on first run.
	Cards []game.CardTemplate
}

// Default returns the built-in configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		ServerAddress: ":8080",

		RatingWindow:        150,
		RematchCooldown:     90 * time.Second,
		PracticeAutoMatchIn: 10 * time.Second,
		QueueLimit:          200,

		LineupPreviewDelay: 5 * time.Second,
		RoundTimer:         20 * time.Second,
		InterRoundPause:    3 * time.Second,
		LiveJitterPercent:  5,

		BlendOverallWeight: 0.5,
		BlendStatWeight:    0.4,

		EloKFactor:         24,
		RatingFloor:        1000,
		RankedWinPoints:    100,
		RankedLossPoints:   30,
		PracticeWinPoints:  40,
		PracticeLossPoints: 15,
		StreakBonusStep:    10,
		StreakBonusCap:     50,
		HappyHourStart:     19,
		HappyHourEnd:       22,
		HappyHourPercent:   20,

		SalaryCap: 420,
	}
}

// LoadConfig reads the configuration file at path and merges it over the
// defaults. An empty path returns the defaults untouched.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if m := rc.Matchmaking; m != nil {
		if m.RatingWindow > 0 {
			cfg.RatingWindow = m.RatingWindow
		}
		if m.RematchCooldownSec > 0 {
			cfg.RematchCooldown = time.Duration(m.RematchCooldownSec) * time.Second
		}
		if m.PracticeAutoMatchSec > 0 {
			cfg.PracticeAutoMatchIn = time.Duration(m.PracticeAutoMatchSec) * time.Second
		}
		if m.QueueLimit > 0 {
			cfg.QueueLimit = m.QueueLimit
		}
	}
	if m := rc.Match; m != nil {
		if m.LineupPreviewSec > 0 {
			cfg.LineupPreviewDelay = time.Duration(m.LineupPreviewSec) * time.Second
		}
		if m.RoundTimerSec > 0 {
			cfg.RoundTimer = time.Duration(m.RoundTimerSec) * time.Second
		}
		if m.InterRoundSec > 0 {
			cfg.InterRoundPause = time.Duration(m.InterRoundSec) * time.Second
		}
		if m.LiveJitterPercent > 0 {
			cfg.LiveJitterPercent = m.LiveJitterPercent
		}
	}
	if p := rc.Power; p != nil {
		if p.BlendOverallWeight > 0 {
			cfg.BlendOverallWeight = p.BlendOverallWeight
		}
		if p.BlendStatWeight > 0 {
			cfg.BlendStatWeight = p.BlendStatWeight
		}
	}
	if r := rc.Rewards; r != nil {
		if r.EloKFactor > 0 {
			cfg.EloKFactor = r.EloKFactor
		}
		if r.RatingFloor > 0 {
			cfg.RatingFloor = r.RatingFloor
		}
		if r.RankedWinPoints > 0 {
			cfg.RankedWinPoints = r.RankedWinPoints
		}
		if r.RankedLossPoints > 0 {
			cfg.RankedLossPoints = r.RankedLossPoints
		}
		if r.PracticeWinPoints > 0 {
			cfg.PracticeWinPoints = r.PracticeWinPoints
		}
		if r.PracticeLossPoints > 0 {
			cfg.PracticeLossPoints = r.PracticeLossPoints
		}
		if r.StreakBonusStep > 0 {
			cfg.StreakBonusStep = r.StreakBonusStep
		}
		if r.StreakBonusCap > 0 {
			cfg.StreakBonusCap = r.StreakBonusCap
		}
		if r.HappyHourStart > 0 {
			cfg.HappyHourStart = r.HappyHourStart
		}
		if r.HappyHourEnd > 0 {
			cfg.HappyHourEnd = r.HappyHourEnd
		}
		if r.HappyHourPercent > 0 {
			cfg.HappyHourPercent = r.HappyHourPercent
		}
	}
	if d := rc.Deck; d != nil && d.SalaryCap > 0 {
		cfg.SalaryCap = d.SalaryCap
	}
	for _, card := range rc.CardList {
		cfg.Cards = append(cfg.Cards, card.template())
	}
	return cfg, nil
}
