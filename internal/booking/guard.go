package booking

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/events"
	"gomoldova-backend/internal/models"
)

// Actor пользователь, от имени которого выполняется действие
type Actor struct {
	UserID uint
	Role   string
}

// Notifier создает уведомление пользователю (запись в БД, push, realtime)
type Notifier interface {
	Notify(ctx context.Context, userID uint, typ models.NotificationType, payload models.NotificationPayload) error
}

// Guard следит за тем, чтобы у пары (поездка, пользователь) была не более
// одной активной заявки, и проводит заявки по их жизненному циклу
type Guard struct {
	store    Store
	notifier Notifier
	events   events.Publisher
	observe  func(action, outcome string)
	status   StatusListener
	log      *logrus.Logger
}

// StatusListener получает заявку после каждого зафиксированного перехода (realtime)
type StatusListener interface {
	BookingStatus(ctx context.Context, b models.Booking)
}

type Option func(*Guard)

func WithEvents(p events.Publisher) Option {
	return func(g *Guard) { g.events = p }
}

// WithObserver вызывается после каждой операции с ее итогом (метрики)
func WithObserver(fn func(action, outcome string)) Option {
	return func(g *Guard) { g.observe = fn }
}

func WithStatusListener(l StatusListener) Option {
	return func(g *Guard) { g.status = l }
}

func NewGuard(store Store, notifier Notifier, log *logrus.Logger, opts ...Option) *Guard {
	g := &Guard{
		store:    store,
		notifier: notifier,
		events:   events.Noop{},
		observe:  func(string, string) {},
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestBooking создает pending-заявку
func (g *Guard) RequestBooking(ctx context.Context, tripID uint, actor Actor) (booking models.Booking, err error) {
	defer func() { g.observe("request", outcome(err)) }()

	trip, err := g.store.GetTrip(ctx, tripID)
	if err != nil {
		return booking, domain.Storage("get trip", err)
	}
	if !trip.IsBookable() {
		return booking, domain.ValidationError{Field: "trip_id", Msg: "поездка недоступна для бронирования"}
	}
	if trip.OwnedBy(actor.UserID) {
		return booking, domain.ForbiddenError{Msg: "нельзя забронировать собственную поездку"}
	}

	existing, err := g.store.FindActive(ctx, tripID, actor.UserID)
	if err != nil {
		return booking, domain.Storage("find active booking", err)
	}
	if existing != nil {
		return booking, DuplicateBookingError{TripID: tripID, UserID: actor.UserID, ExistingStatus: existing.Status}
	}

	booking, err = g.store.InsertPending(ctx, tripID, actor.UserID)
	if errors.Is(err, ErrUniqueViolation) {
		// Параллельный запрос успел вставить заявку между проверкой и вставкой
		status := models.BookingStatusPending
		if current, ferr := g.store.FindActive(ctx, tripID, actor.UserID); ferr == nil && current != nil {
			status = current.Status
		}
		return models.Booking{}, DuplicateBookingError{TripID: tripID, UserID: actor.UserID, ExistingStatus: status}
	}
	if err != nil {
		return booking, domain.Storage("insert booking", err)
	}

	g.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"trip_id":    tripID,
		"user_id":    actor.UserID,
	}).Info("Создана заявка на бронирование")

	payload := models.TripSummary(trip)
	payload.BookingID = booking.ID
	payload.CounterpartID = actor.UserID
	if requester, uerr := g.store.GetUser(ctx, actor.UserID); uerr == nil {
		payload.CounterpartName = requester.FullName()
		booking.User = &requester
	}

	ownerID := trip.OwnerUserID()
	g.notify(ctx, ownerID, models.NotificationBookingRequested, payload)
	g.publish(ctx, events.Event{
		Type:        events.BookingRequested,
		RecipientID: ownerID,
		BookingID:   booking.ID,
		TripID:      tripID,
		Status:      string(booking.Status),
	})

	booking.Trip = &trip
	g.statusChanged(ctx, booking)
	return booking, nil
}

// Decide решение владельца поездки по pending-заявке: accepted или rejected
func (g *Guard) Decide(ctx context.Context, bookingID uint, decision models.BookingStatus, reason string, actor Actor) (updated models.Booking, err error) {
	defer func() { g.observe("decide", outcome(err)) }()

	if decision != models.BookingStatusAccepted && decision != models.BookingStatusRejected {
		return updated, domain.ValidationError{Field: "status", Msg: "допустимо accepted или rejected"}
	}

	current, err := g.store.GetBooking(ctx, bookingID)
	if err != nil {
		return updated, domain.Storage("get booking", err)
	}
	if current.Trip == nil || !current.Trip.OwnedBy(actor.UserID) {
		return updated, domain.ForbiddenError{Msg: "решение по заявке принимает только владелец поездки"}
	}
	if current.Status != models.BookingStatusPending {
		return updated, domain.InvalidTransitionError{Resource: "booking", From: string(current.Status), To: string(decision)}
	}

	if decision == models.BookingStatusAccepted {
		updated, err = g.store.Accept(ctx, bookingID)
	} else {
		updated, err = g.store.Transition(ctx, bookingID, Change{
			From:         []models.BookingStatus{models.BookingStatusPending},
			To:           models.BookingStatusRejected,
			RejectReason: reason,
		})
	}
	if err != nil {
		return updated, domain.Storage("decide booking", err)
	}
	updated.Trip, updated.User = current.Trip, current.User

	g.log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"trip_id":    current.TripID,
		"status":     updated.Status,
	}).Info("Решение по заявке принято")

	payload := models.TripSummary(*current.Trip)
	payload.BookingID = bookingID
	payload.CounterpartID = actor.UserID
	payload.CounterpartName = current.Trip.ProviderName()
	payload.Reason = reason

	typ, evType := models.NotificationBookingAccepted, events.BookingAccepted
	if decision == models.BookingStatusRejected {
		typ, evType = models.NotificationBookingRejected, events.BookingRejected
	}
	g.notify(ctx, current.UserID, typ, payload)
	g.publish(ctx, events.Event{
		Type:        evType,
		RecipientID: current.UserID,
		BookingID:   bookingID,
		TripID:      current.TripID,
		Status:      string(updated.Status),
		Reason:      reason,
	})
	g.statusChanged(ctx, updated)

	return updated, nil
}

// Cancel пассажир отменяет pending или accepted заявку, владелец поездки только accepted или rejected
func (g *Guard) Cancel(ctx context.Context, bookingID uint, actor Actor) (updated models.Booking, err error) {
	defer func() { g.observe("cancel", outcome(err)) }()

	current, err := g.store.GetBooking(ctx, bookingID)
	if err != nil {
		return updated, domain.Storage("get booking", err)
	}

	var (
		allowed     []models.BookingStatus
		recipientID uint
		payload     models.NotificationPayload
	)
	if current.Trip != nil {
		payload = models.TripSummary(*current.Trip)
	}
	payload.BookingID = bookingID
	payload.CounterpartID = actor.UserID

	switch {
	case current.UserID == actor.UserID:
		allowed = []models.BookingStatus{models.BookingStatusPending, models.BookingStatusAccepted}
		if current.Trip != nil {
			recipientID = current.Trip.OwnerUserID()
		}
		if current.User != nil {
			payload.CounterpartName = current.User.FullName()
		}
	case current.Trip != nil && current.Trip.OwnedBy(actor.UserID):
		allowed = []models.BookingStatus{models.BookingStatusAccepted, models.BookingStatusRejected}
		recipientID = current.UserID
		payload.CounterpartName = current.Trip.ProviderName()
	default:
		return updated, domain.ForbiddenError{Msg: "отменить заявку может только пассажир или владелец поездки"}
	}

	if !containsStatus(allowed, current.Status) {
		return updated, domain.InvalidTransitionError{Resource: "booking", From: string(current.Status), To: string(models.BookingStatusCancelled)}
	}

	cancelledBy := actor.UserID
	updated, err = g.store.Transition(ctx, bookingID, Change{
		From:        allowed,
		To:          models.BookingStatusCancelled,
		CancelledBy: &cancelledBy,
	})
	if err != nil {
		return updated, domain.Storage("cancel booking", err)
	}
	updated.Trip, updated.User = current.Trip, current.User

	g.log.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"trip_id":      current.TripID,
		"cancelled_by": actor.UserID,
	}).Info("Заявка отменена")

	if recipientID != 0 {
		g.notify(ctx, recipientID, models.NotificationBookingCancelled, payload)
		g.publish(ctx, events.Event{
			Type:        events.BookingCancelled,
			RecipientID: recipientID,
			BookingID:   bookingID,
			TripID:      current.TripID,
			Status:      string(updated.Status),
		})
	}
	g.statusChanged(ctx, updated)

	return updated, nil
}

// ListMine заявки пользователя, новые первыми
func (g *Guard) ListMine(ctx context.Context, actor Actor) ([]models.Booking, error) {
	bookings, err := g.store.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, domain.Storage("list user bookings", err)
	}
	return bookings, nil
}

// ListForTrip заявки на поездку. Доступно владельцу поездки и администратору
func (g *Guard) ListForTrip(ctx context.Context, tripID uint, actor Actor) ([]models.Booking, error) {
	trip, err := g.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, domain.Storage("get trip", err)
	}
	if !trip.OwnedBy(actor.UserID) && actor.Role != models.RoleAdmin {
		return nil, domain.ForbiddenError{Msg: "список заявок доступен только владельцу поездки"}
	}

	bookings, err := g.store.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, domain.Storage("list trip bookings", err)
	}
	return bookings, nil
}

// notify ошибки не возвращаются: переход уже зафиксирован
func (g *Guard) notify(ctx context.Context, userID uint, typ models.NotificationType, payload models.NotificationPayload) {
	if g.notifier == nil || userID == 0 {
		return
	}
	if err := g.notifier.Notify(ctx, userID, typ, payload); err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"booking_id": payload.BookingID,
			"type":       typ,
		}).Warn("Не удалось отправить уведомление")
	}
}

func (g *Guard) statusChanged(ctx context.Context, b models.Booking) {
	if g.status != nil {
		g.status.BookingStatus(ctx, b)
	}
}

func (g *Guard) publish(ctx context.Context, ev events.Event) {
	if err := g.events.Publish(ctx, ev); err != nil {
		g.log.WithError(err).WithField("event", ev.Type).Warn("Не удалось опубликовать событие")
	}
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsDuplicate(err):
		return "duplicate"
	case IsNoSeats(err):
		return "no_seats"
	case domain.IsForbidden(err):
		return "forbidden"
	case domain.IsInvalidTransition(err):
		return "invalid_transition"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
