package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/fazecat/avwapscout/Internal/datafeed"
	"github.com/fazecat/avwapscout/Internal/utils/config"
	"github.com/fazecat/avwapscout/cmd/api/internal"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("could not load config")
	}

	if err := datafeed.InitDatabase(); err != nil {
		zlog.Warn().Err(err).Msg("signal history database unavailable; /api/history disabled")
	}
	defer datafeed.CloseDatabase()

	apiServer := &internal.API{
		Cfg:        cfg,
		JWTManager: internal.NewJWTManager(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(internal.CorsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    "healthy",
		})
	})

	// Public routes
	r.Get("/api/report", apiServer.HandleGetReport)
	r.Post("/api/token", apiServer.HandleGenerateToken)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(internal.JWTAuthMiddleware(apiServer.JWTManager))
		r.Get("/api/signals", apiServer.HandleGetSignals)
		r.Get("/api/history", apiServer.HandleSignalHistory)
	})

	zlog.Info().Str("addr", cfg.API.ListenAddr).Msg("starting API server")
	if err := http.ListenAndServe(cfg.API.ListenAddr, r); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}
}
