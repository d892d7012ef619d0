package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationBookingRequested NotificationType = "booking_requested"
	NotificationBookingAccepted  NotificationType = "booking_accepted"
	NotificationBookingRejected  NotificationType = "booking_rejected"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationTripCancelled    NotificationType = "trip_cancelled"
	NotificationCompanyApproved  NotificationType = "company_approved"
	NotificationCompanyRejected  NotificationType = "company_rejected"
)

// NotificationPayload хранится в jsonb
type NotificationPayload struct {
	TripID          uint   `json:"trip_id,omitempty"`
	BookingID       uint   `json:"booking_id,omitempty"`
	CompanyID       uint   `json:"company_id,omitempty"`
	FromCity        string `json:"from_city,omitempty"`
	ToCity          string `json:"to_city,omitempty"`
	DepartureDate   string `json:"departure_date,omitempty"`
	DepartureTime   string `json:"departure_time,omitempty"`
	CounterpartID   uint   `json:"counterpart_id,omitempty"`
	CounterpartName string `json:"counterpart_name,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func (p NotificationPayload) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (p *NotificationPayload) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = NotificationPayload{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("неподдерживаемый тип payload: %T", value)
	}
	return json.Unmarshal(data, p)
}

// TripSummary поля поездки, которые попадают в уведомление
func TripSummary(t Trip) NotificationPayload {
	return NotificationPayload{
		TripID:        t.ID,
		FromCity:      t.FromCity,
		ToCity:        t.ToCity,
		DepartureDate: t.DepartureDate,
		DepartureTime: t.DepartureTime,
	}
}

type Notification struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	UserID    uint                `json:"user_id" gorm:"not null;index"`
	Type      NotificationType    `json:"type" gorm:"type:varchar(40);not null"`
	Payload   NotificationPayload `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time           `json:"created_at" gorm:"index"`
	ReadAt    *time.Time          `json:"read_at"`
}
