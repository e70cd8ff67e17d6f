package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fazecat/avwapscout/Internal/datafeed"
	"github.com/fazecat/avwapscout/Internal/earnings"
	"github.com/fazecat/avwapscout/Internal/runner"
	"github.com/fazecat/avwapscout/Internal/utils/config"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	if err := datafeed.InitDatabase(); err != nil {
		log.Warn().Err(err).Msg("signal history database unavailable; continuing without it")
	}
	defer datafeed.CloseDatabase()

	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_API_SECRET")

	if apiKey != "" && secretKey != "" {
		alpclient := alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: secretKey,
			BaseURL:   "https://paper-api.alpaca.markets",
		})
		if _, err := alpclient.GetAccount(); err != nil {
			log.Warn().Err(err).Msg("could not verify Alpaca account (check API keys)")
		} else {
			log.Info().Msg("Alpaca account connected")
		}
	} else {
		log.Warn().Msg("Alpaca API keys not configured; bar fetches will return no data")
	}

	session := datafeed.NewSession(cfg.DatafeedTimeout())
	calendar := earnings.NewCalendarClient(cfg.EarningsThrottle())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(cfg, session, calendar)
	log.Info().
		Str("report", cfg.Scanner.ReportFile).
		Dur("interval", cfg.FetchInterval()).
		Msg("scanner starting")
	r.Loop(ctx, cfg.FetchInterval())
}
