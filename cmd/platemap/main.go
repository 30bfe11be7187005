package main

import (
	"context"
	"log"
	"net/http"

	"platemap/internal/logging"
	"platemap/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if err := ensureSchema(context.Background(), db); err != nil {
		logger.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	dataStore := store.New(db)
	handler := newHTTPHandler(cfg, dataStore, logger)

	logger.Info().Str("addr", cfg.Addr).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
