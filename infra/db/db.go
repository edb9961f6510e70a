package db

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" //postgres
	"github.com/labstack/gommon/log"
	"github.com/radhian/ledger-reconciliation/config"
	"github.com/radhian/ledger-reconciliation/infra/db/model"
)

// DSN builds the postgres connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s password=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Name, cfg.SSLMode, cfg.Password)
}

// Open connects to postgres and migrates the progress table.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := gorm.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database %s: %w", cfg.Name, err)
	}
	log.Infof("[DB] Connected to database %s at %s:%s", cfg.Name, cfg.Host, cfg.Port)

	if err := conn.AutoMigrate(&model.ReconciliationProcessLog{}).Error; err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return conn, nil
}
