package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"assetanalysis/internal/config"
	"assetanalysis/internal/engine"
	"assetanalysis/internal/server"
	"assetanalysis/internal/yahoo"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	provider := yahoo.New(log)
	eng := engine.New(provider, cfg.EngineConfig(), log)
	mux := server.New(eng, log).Mux()

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("listening")
	if err := server.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
