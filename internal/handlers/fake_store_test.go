package handlers

import (
	"context"
	"sync"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	trips    map[uint]models.Trip
	users    map[uint]models.User
	bookings map[uint]models.Booking
	nextID   uint
}

func newMemStore() *memStore {
	return &memStore{
		trips:    map[uint]models.Trip{},
		users:    map[uint]models.User{},
		bookings: map[uint]models.Booking{},
	}
}

func (s *memStore) GetTrip(_ context.Context, tripID uint) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return t, domain.NotFoundError{Resource: "поездка"}
	}
	return t, nil
}

func (s *memStore) GetUser(_ context.Context, userID uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return u, domain.NotFoundError{Resource: "пользователь"}
	}
	return u, nil
}

func (s *memStore) GetBooking(_ context.Context, bookingID uint) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return b, domain.NotFoundError{Resource: "заявка"}
	}
	trip := s.trips[b.TripID]
	b.Trip = &trip
	return b, nil
}

func (s *memStore) FindActive(_ context.Context, tripID, userID uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.TripID == tripID && b.UserID == userID && b.Status.IsActive() {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertPending(_ context.Context, tripID, userID uint) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.TripID == tripID && b.UserID == userID && b.Status.IsActive() {
			return models.Booking{}, booking.ErrUniqueViolation
		}
	}
	s.nextID++
	b := models.Booking{ID: s.nextID, TripID: tripID, UserID: userID, Status: models.BookingStatusPending}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) Accept(_ context.Context, bookingID uint) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return b, domain.NotFoundError{Resource: "заявка"}
	}
	accepted := 0
	for _, other := range s.bookings {
		if other.TripID == b.TripID && other.Status == models.BookingStatusAccepted {
			accepted++
		}
	}
	if available := s.trips[b.TripID].Seats - accepted; available <= 0 {
		return b, booking.NoSeatsAvailableError{TripID: b.TripID, Available: available}
	}
	if b.Status != models.BookingStatusPending {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(models.BookingStatusAccepted)}
	}
	b.Status = models.BookingStatusAccepted
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) Transition(_ context.Context, bookingID uint, ch booking.Change) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return b, domain.NotFoundError{Resource: "заявка"}
	}
	allowed := false
	for _, from := range ch.From {
		if b.Status == from {
			allowed = true
		}
	}
	if !allowed {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(ch.To)}
	}
	b.Status = ch.To
	b.RejectReason = ch.RejectReason
	b.CancelledBy = ch.CancelledBy
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) ListByUser(_ context.Context, userID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			trip := s.trips[b.TripID]
			b.Trip = &trip
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) ListByTrip(_ context.Context, tripID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.TripID == tripID {
			out = append(out, b)
		}
	}
	return out, nil
}
