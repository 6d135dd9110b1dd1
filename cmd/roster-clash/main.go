package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/rosterleague/roster-clash/internal/api"
	"github.com/rosterleague/roster-clash/internal/config"
	"github.com/rosterleague/roster-clash/internal/constants"
	"github.com/rosterleague/roster-clash/internal/logging"
	"github.com/rosterleague/roster-clash/internal/match"
	"github.com/rosterleague/roster-clash/internal/power"
	"github.com/rosterleague/roster-clash/internal/queue"
	"github.com/rosterleague/roster-clash/internal/realtime"
	"github.com/rosterleague/roster-clash/internal/settle"
	"github.com/rosterleague/roster-clash/internal/storage"
	"github.com/rosterleague/roster-clash/internal/tracker"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()
	checkEnvVars([]string{constants.EnvSessionSecret, constants.EnvGoogleClientID, constants.EnvGoogleClientSecret})

	// Card roster and tunables. Path may be provided via ROSTER_CONFIG or
	// defaults to ./roster_config.json in the working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./roster_config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Fatal("Missing or invalid roster configuration", err, logging.Fields{"config_path": configPath, "hint": "create a roster_config.json with a 'card_list' array of card objects (name,position,season_tag,teams,overall,salary and the eight attributes) plus optional server/matchmaking/match/rewards/deck sections"})
	}
	power.SetBlendWeights(cfg.BlendOverallWeight, cfg.BlendStatWeight)

	dbPath := os.Getenv(constants.EnvDBPath)
	if dbPath == "" {
		dbPath = "./data/roster.db"
	}
	db, err := storage.OpenAndMigrate(dbPath, cfg.Cards)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	repo := storage.NewSQLiteRepository(db)

	trackers := tracker.NewDispatcher(tracker.LogSink{}, 256)
	defer trackers.Close()

	hub := realtime.NewHub()
	settler := settle.NewService(repo, trackers, hub, cfg)
	matches := match.NewRegistry(cfg, hub, settler, nil)
	queues := queue.NewManager(cfg, repo, hub, matches, nil)

	startMaintenance(queues)

	authHandler := api.NewAuthHandler(repo)
	playerHandler := api.NewPlayerHandler(repo)
	socketHandler := api.NewSocketHandler(hub, queues, matches, repo, cfg)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteLeaderboard, playerHandler.ListLeaderboard)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.AuthRequired())

		protected.GET(constants.RoutePlayerStats, playerHandler.GetPlayerStats)
		protected.GET(constants.RouteDecks, playerHandler.ListDecks)
		protected.GET(constants.RouteDeckByID, playerHandler.GetDeck)
		protected.GET(constants.RouteGameSocket, socketHandler.HandleSocket)
	}

	router.POST(constants.RouteAuthGoogleCallBack, authHandler.GoogleOAuthCallback)

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

// startMaintenance runs the periodic queue jobs: anti-rematch cooldown
// collection and a depth log for operators.
func startMaintenance(queues *queue.Manager) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logging.Fatal("Failed to create scheduler", err, nil)
		return
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(func() {
			if removed := queues.CollectExpired(); removed > 0 {
				logging.Info("rematch cooldowns expired", logging.Fields{"removed": removed})
			}
		}),
	)
	if err != nil {
		logging.Fatal("Failed to schedule cooldown collection", err, nil)
		return
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			sizes := queues.Sizes()
			fields := logging.Fields{}
			for mode, n := range sizes {
				fields[string(mode)] = n
			}
			logging.Info("queue depth", fields)
		}),
	)
	if err != nil {
		logging.Fatal("Failed to schedule queue depth log", err, nil)
		return
	}
	scheduler.Start()
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}
