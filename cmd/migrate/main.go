// Command migrate creates the users and videos tables if they are missing.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pnithesh/viralvision-backend/internal/config"
	"github.com/pnithesh/viralvision-backend/pkg/database"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

func main() {
	cfg, err := config.LoadDatabase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.EnsureSchema(ctx, sqlx.NewDb(sqlDB, "postgres")); err != nil {
		sugar.Fatalf("migrate: %v", err)
	}
	sugar.Infow("schema is up to date", "database", cfg.Database.Name)
}
