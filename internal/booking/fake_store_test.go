package booking

import (
	"context"
	"sync"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
)

// memStore хранилище в памяти с той же семантикой уникальности и блокировки, что и GormStore
type memStore struct {
	mu       sync.Mutex
	trips    map[uint]models.Trip
	users    map[uint]models.User
	bookings map[uint]models.Booking
	nextID   uint

	// skipPreCheck заставляет FindActive промахнуться, имитируя гонку между проверкой и вставкой
	skipPreCheck int
	failWith     error
}

func newMemStore() *memStore {
	return &memStore{
		trips:    map[uint]models.Trip{},
		users:    map[uint]models.User{},
		bookings: map[uint]models.Booking{},
	}
}

func (s *memStore) addTrip(t models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[t.ID] = t
}

func (s *memStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) GetTrip(_ context.Context, tripID uint) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return models.Trip{}, s.failWith
	}
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
	if u, ok := s.users[b.UserID]; ok {
		b.User = &u
	}
	return b, nil
}

func (s *memStore) FindActive(_ context.Context, tripID, userID uint) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipPreCheck > 0 {
		s.skipPreCheck--
		return nil, nil
	}
	if b := s.activeLocked(tripID, userID); b != nil {
		return b, nil
	}
	return nil, nil
}

func (s *memStore) activeLocked(tripID, userID uint) *models.Booking {
	for _, b := range s.bookings {
		if b.TripID == tripID && b.UserID == userID && b.Status.IsActive() {
			found := b
			return &found
		}
	}
	return nil
}

func (s *memStore) InsertPending(_ context.Context, tripID, userID uint) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLocked(tripID, userID) != nil {
		return models.Booking{}, ErrUniqueViolation
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
	if b.Status != models.BookingStatusPending {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(models.BookingStatusAccepted)}
	}

	trip := s.trips[b.TripID]
	accepted := 0
	for _, other := range s.bookings {
		if other.TripID == trip.ID && other.Status == models.BookingStatusAccepted {
			accepted++
		}
	}
	if available := trip.Seats - accepted; available <= 0 {
		return b, NoSeatsAvailableError{TripID: trip.ID, Available: available}
	}

	b.Status = models.BookingStatusAccepted
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) Transition(_ context.Context, bookingID uint, ch Change) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return b, domain.NotFoundError{Resource: "заявка"}
	}
	if !containsStatus(ch.From, b.Status) {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(ch.To)}
	}
	b.Status = ch.To
	if ch.RejectReason != "" {
		b.RejectReason = ch.RejectReason
	}
	if ch.CancelledBy != nil {
		by := *ch.CancelledBy
		b.CancelledBy = &by
	}
	s.bookings[b.ID] = b
	return b, nil
}

func (s *memStore) ListByUser(_ context.Context, userID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
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

type sentNotification struct {
	UserID  uint
	Type    models.NotificationType
	Payload models.NotificationPayload
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uint, typ models.NotificationType, payload models.NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Type: typ, Payload: payload})
	return n.err
}

func (n *recordingNotifier) last() (sentNotification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentNotification{}, false
	}
	return n.sent[len(n.sent)-1], true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
