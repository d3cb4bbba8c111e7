package db

import (
	"fmt"

	"github.com/ApexRestoration/api-sales/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect abre a conexão com o Postgres a partir da configuração.
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	var sslMode string
	if cfg.DisableSSL {
		sslMode = " sslmode=disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode)
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return database, nil
}
