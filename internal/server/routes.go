package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/arogoat/dubmaster-server/internal/config"
	"github.com/arogoat/dubmaster-server/internal/db"
	"github.com/arogoat/dubmaster-server/internal/events"
	"github.com/arogoat/dubmaster-server/internal/lobbies"
	"github.com/arogoat/dubmaster-server/internal/voice"
	"github.com/arogoat/dubmaster-server/internal/wshub"
)

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("[Server] No .env file found, using environment")
	}
	appCfg := config.Load()

	gameCfg := lobbies.Config{
		MaxRounds:        appCfg.MaxRounds,
		ReconnectTimeout: appCfg.ReconnectTimeout,
		GameOverDelay:    appCfg.GameOverDelay,
	}

	bus := events.NewBus()
	hub := wshub.NewHub()
	go hub.Forward(bus)

	registry := lobbies.NewRegistry(bus, gameCfg)

	srv := &Server{
		Hub:      hub,
		Registry: registry,
		Bus:      bus,
		Voice:    voice.NewClient(appCfg.ElevenLabsAPIKey, appCfg.ElevenLabsVoice),
	}
	if !srv.Voice.Enabled() {
		log.Println("[Voice] ELEVENLABS_API_KEY not set, voice generation disabled")
	}

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			registry.SetArchiver(database)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", srv.handleWS)
	r.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/analytics/leaderboard", srv.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/analytics/games", srv.handleRecentGames).Methods(http.MethodGet)

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, r)
}
