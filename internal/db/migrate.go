package db

import (
	"fmt"

	"gorm.io/gorm"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/models"
)

// Migrate создает таблицы и частичный уникальный индекс активных заявок
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Trip{},
		&models.Booking{},
		&models.Notification{},
		&models.Message{},
	); err != nil {
		return fmt.Errorf("ошибка миграции базы данных: %w", err)
	}
	return booking.Migrate(gdb)
}
