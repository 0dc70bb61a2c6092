package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"gopivot/adapters/postgres"
	"gopivot/adapters/sheets"
	"gopivot/app"
	"gopivot/internal"
	"gopivot/internal/api"
	"gopivot/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		return nil, fmt.Errorf("schema bootstrap failed: %w", err)
	}
	return db, nil
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := internal.DefaultLogger

	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer db.Close()

	collab, err := sheets.NewClient(sheets.Config{
		BaseURL:       cfg.Sheets.BaseURL,
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		APIKey:        cfg.Sheets.APIKey,
		Timeout:       cfg.Sheets.Timeout,
	})
	if err != nil {
		log.Fatalf("sheets client init failed: %v", err)
	}

	service := app.NewPivotService(postgres.NewTableRepository(db), collab, logger)
	handler := api.NewHandler(service, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("pivot API listening on %s", addr)
	if err := http.ListenAndServe(addr, handler.Router()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
