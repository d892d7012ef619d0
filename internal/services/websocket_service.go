package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/realtime"
)

// StatusBroadcaster рассылает изменения статусов всем заинтересованным сторонам через realtime
type StatusBroadcaster struct {
	pub realtime.Publisher
	log *logrus.Logger
}

func NewStatusBroadcaster(pub realtime.Publisher, log *logrus.Logger) *StatusBroadcaster {
	return &StatusBroadcaster{pub: pub, log: log}
}

type bookingStatusPayload struct {
	BookingID uint                 `json:"booking_id"`
	TripID    uint                 `json:"trip_id"`
	Status    models.BookingStatus `json:"status"`
}

type tripStatusPayload struct {
	TripID uint              `json:"trip_id"`
	Status models.TripStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

// BookingStatus пассажиру и владельцу поездки
func (b *StatusBroadcaster) BookingStatus(ctx context.Context, booking models.Booking) {
	recipients := []uint{booking.UserID}
	if booking.Trip != nil {
		if owner := booking.Trip.OwnerUserID(); owner != 0 && owner != booking.UserID {
			recipients = append(recipients, owner)
		}
	}

	payload := bookingStatusPayload{BookingID: booking.ID, TripID: booking.TripID, Status: booking.Status}
	for _, userID := range recipients {
		b.send(ctx, realtime.TypeBookingStatus, userID, payload)
	}
}

// TripStatus пассажирам с активными заявками
func (b *StatusBroadcaster) TripStatus(ctx context.Context, trip models.Trip, passengerIDs []uint) {
	payload := tripStatusPayload{TripID: trip.ID, Status: trip.Status, Reason: trip.CancellationReason}
	for _, userID := range passengerIDs {
		b.send(ctx, realtime.TypeTripStatus, userID, payload)
	}
}

func (b *StatusBroadcaster) send(ctx context.Context, typ string, userID uint, payload interface{}) {
	if b == nil || b.pub == nil {
		return
	}
	ev, err := realtime.NewEvent(typ, userID, payload)
	if err != nil {
		b.log.WithError(err).Warn("Ошибка при кодировании realtime события")
		return
	}
	if err := b.pub.Publish(ctx, ev); err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{"type": typ, "user_id": userID}).Warn("Не удалось отправить realtime событие")
	}
}
