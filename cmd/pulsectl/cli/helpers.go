package cli

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/config"
	"github.com/eventstream/pulse/internal/database"
)

// openDB loads config, connects and applies migrations.
func openDB() (*config.Config, *sqlx.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, db, nil
}
