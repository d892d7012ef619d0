package events

import (
	"context"
	"time"
)

// Типы событий, которые получает почтовый релей
const (
	BookingRequested = "booking.requested"
	BookingAccepted  = "booking.accepted"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	TripCancelled    = "trip.cancelled"
	CompanyApproved  = "company.approved"
	CompanyRejected  = "company.rejected"
)

// Event доменное событие. RecipientID получатель письма
type Event struct {
	Type        string    `json:"type"`
	RecipientID uint      `json:"recipient_id"`
	BookingID   uint      `json:"booking_id,omitempty"`
	TripID      uint      `json:"trip_id,omitempty"`
	CompanyID   uint      `json:"company_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop используется, когда брокер не настроен
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
