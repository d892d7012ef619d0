package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gomoldova-backend/internal/config"
)

// ConnectWithRetry открывает PostgreSQL, повторяя попытки, пока база поднимается вместе с сервисом
func ConnectWithRetry(cfg config.Config, log *logrus.Logger, maxAttempts int, delay time.Duration) (*gorm.DB, error) {
	var err error
	for i := 0; i < maxAttempts; i++ {
		var gdb *gorm.DB
		gdb, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Error),
			TranslateError: true,
		})
		if err == nil {
			sqlDB, dbErr := gdb.DB()
			if dbErr != nil {
				return nil, fmt.Errorf("не удалось получить доступ к sql.DB: %w", dbErr)
			}
			sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
			sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
			return gdb, nil
		}

		log.WithError(err).Warnf("Попытка подключения к БД %d из %d не удалась", i+1, maxAttempts)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("не удалось подключиться к базе данных после %d попыток: %w", maxAttempts, err)
}
