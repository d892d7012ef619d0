package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает решения владельца
	BookingStatusAccepted  BookingStatus = "accepted"  // Подтверждено
	BookingStatusRejected  BookingStatus = "rejected"  // Отклонено
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
)

// ActiveBookingStatuses статусы, которые занимают пару (поездка, пользователь)
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusAccepted}

// IsActive pending или accepted
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

// Booking заявка пользователя на одно место в поездке
type Booking struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	TripID       uint          `json:"trip_id" gorm:"not null;index"`
	UserID       uint          `json:"user_id" gorm:"not null;index"`
	Status       BookingStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RejectReason string        `json:"reject_reason,omitempty" gorm:"default:''"`
	CancelledBy  *uint         `json:"cancelled_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Trip         *Trip         `json:"-" gorm:"foreignKey:TripID"`
	User         *User         `json:"-" gorm:"foreignKey:UserID"`
}

// BookingResponse представляет ответ API с информацией о бронировании
type BookingResponse struct {
	ID            uint          `json:"id"`
	TripID        uint          `json:"trip_id"`
	UserID        uint          `json:"user_id"`
	Status        BookingStatus `json:"status"`
	RejectReason  string        `json:"reject_reason,omitempty"`
	CancelledBy   *uint         `json:"cancelled_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	PassengerName string        `json:"passenger_name,omitempty"`
	Trip          *TripResponse `json:"trip,omitempty"`
}

func (b Booking) Response() BookingResponse {
	resp := BookingResponse{
		ID:           b.ID,
		TripID:       b.TripID,
		UserID:       b.UserID,
		Status:       b.Status,
		RejectReason: b.RejectReason,
		CancelledBy:  b.CancelledBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if b.User != nil {
		resp.PassengerName = b.User.FullName()
	}
	return resp
}
