package database

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenORM wraps an existing pool with gorm so the ORM and sqlx share one set
// of connections. Every repository call is a single statement, so gorm's
// implicit write transactions are turned off.
func OpenORM(db *sql.DB) (*gorm.DB, error) {
	orm, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open orm: %w", err)
	}
	return orm, nil
}
