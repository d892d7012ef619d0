package booking

import (
	"context"

	"gomoldova-backend/internal/models"
)

// Change условный переход статуса: применяется, только если текущий статус входит в From
type Change struct {
	From         []models.BookingStatus
	To           models.BookingStatus
	RejectReason string
	CancelledBy  *uint
}

// Store хранилище заявок. Все ошибки, кроме доменных, считаются сбоем хранилища.
type Store interface {
	// GetTrip поездка с загруженными Driver и Company
	GetTrip(ctx context.Context, tripID uint) (models.Trip, error)
	GetUser(ctx context.Context, userID uint) (models.User, error)
	// GetBooking заявка с загруженными Trip (Driver, Company) и User
	GetBooking(ctx context.Context, bookingID uint) (models.Booking, error)
	// FindActive pending или accepted заявка пары, nil если нет
	FindActive(ctx context.Context, tripID, userID uint) (*models.Booking, error)
	// InsertPending возвращает ErrUniqueViolation при нарушении уникальности активной заявки
	InsertPending(ctx context.Context, tripID, userID uint) (models.Booking, error)
	// Accept в одной транзакции блокирует поездку, пересчитывает места и подтверждает заявку
	Accept(ctx context.Context, bookingID uint) (models.Booking, error)
	Transition(ctx context.Context, bookingID uint, ch Change) (models.Booking, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	ListByTrip(ctx context.Context, tripID uint) ([]models.Booking, error)
}
