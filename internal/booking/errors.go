package booking

import (
	"errors"
	"fmt"

	"gomoldova-backend/internal/models"
)

// ErrUniqueViolation возвращается хранилищем, когда вставка нарушила
// уникальность активной заявки по паре (поездка, пользователь)
var ErrUniqueViolation = errors.New("активная заявка уже существует")

// DuplicateBookingError у пользователя уже есть активная заявка на поездку
type DuplicateBookingError struct {
	TripID         uint
	UserID         uint
	ExistingStatus models.BookingStatus
}

func (e DuplicateBookingError) Error() string {
	return fmt.Sprintf("заявка на поездку %d уже существует (статус %s)", e.TripID, e.ExistingStatus)
}

func (e DuplicateBookingError) Code() string { return "duplicate_booking" }

// NoSeatsAvailableError на момент подтверждения свободных мест не осталось
type NoSeatsAvailableError struct {
	TripID    uint
	Available int
}

func (e NoSeatsAvailableError) Error() string {
	return fmt.Sprintf("в поездке %d нет свободных мест", e.TripID)
}

func (e NoSeatsAvailableError) Code() string { return "no_seats_available" }

func IsDuplicate(err error) bool {
	var target DuplicateBookingError
	return errors.As(err, &target)
}

func IsNoSeats(err error) bool {
	var target NoSeatsAvailableError
	return errors.As(err, &target)
}
