package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/swapcircle/internal/config"
)

// AllModels is the migration set, shared with the test helpers.
var AllModels = []any{
	&User{}, &Item{}, &InterestEdge{}, &Match{}, &Message{}, &ReadReceipt{}, &Notification{},
}

// NewDB initializes the database connection using DSN from config.
//
// TranslateError is required: the idempotent-write paths rely on
// dialect duplicate-key errors surfacing as gorm.ErrDuplicatedKey.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(AllModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
