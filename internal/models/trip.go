package models

import (
	"time"
)

type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled" // Запланирована
	TripStatusActive    TripStatus = "active"    // В пути
	TripStatusCompleted TripStatus = "completed" // Завершена
	TripStatusCancelled TripStatus = "cancelled" // Отменена
)

type VehicleType string

const (
	VehicleCar VehicleType = "car"
	VehicleBus VehicleType = "bus"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type TripPreferences struct {
	Smoking bool `json:"smoking" gorm:"default:false"`
	Music   bool `json:"music" gorm:"default:false"`
	Pets    bool `json:"pets" gorm:"default:false"`
}

// Trip поездка водителя (легковой автомобиль) или рейс компании (автобус).
// У поездки ровно один владелец: DriverID или CompanyID.
type Trip struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	FromCity           string          `json:"from_city" gorm:"not null;type:varchar(120);index"`
	ToCity             string          `json:"to_city" gorm:"not null;type:varchar(120);index"`
	DepartureDate      string          `json:"departure_date" gorm:"not null;type:varchar(10);index"`
	DepartureTime      string          `json:"departure_time" gorm:"not null;type:varchar(5)"`
	Seats              int             `json:"seats" gorm:"not null;check:seats >= 0"`
	Price              float64         `json:"price" gorm:"not null"`
	DriverID           *uint           `json:"driver_id,omitempty" gorm:"index;check:chk_trip_provider,(driver_id IS NULL) <> (company_id IS NULL)"`
	CompanyID          *uint           `json:"company_id,omitempty" gorm:"index"`
	Status             TripStatus      `json:"status" gorm:"type:varchar(20);default:'scheduled';index"`
	CancellationReason string          `json:"cancellation_reason,omitempty" gorm:"default:''"`
	Description        string          `json:"description" gorm:"default:''"`
	Preferences        TripPreferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Driver             *User           `json:"-" gorm:"foreignKey:DriverID"`
	Company            *Company        `json:"-" gorm:"foreignKey:CompanyID"`
	Bookings           []Booking       `json:"-" gorm:"foreignKey:TripID"`
}

// VehicleType автобус, если у поездки есть компания-владелец, иначе автомобиль
func (t Trip) VehicleType() VehicleType {
	if t.CompanyID != nil {
		return VehicleBus
	}
	return VehicleCar
}

// IsBookable на поездку можно подать заявку
func (t Trip) IsBookable() bool {
	return t.Status == TripStatusScheduled || t.Status == TripStatusActive
}

// IsFinal завершенные и отмененные поездки не изменяются
func (t Trip) IsFinal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

// OwnerUserID пользователь, управляющий поездкой. Для рейса компании нужен загруженный Company.
func (t Trip) OwnerUserID() uint {
	if t.DriverID != nil {
		return *t.DriverID
	}
	if t.Company != nil {
		return t.Company.OwnerID
	}
	return 0
}

func (t Trip) OwnedBy(userID uint) bool {
	return userID != 0 && t.OwnerUserID() == userID
}

// ProviderRating рейтинг водителя или компании, nil если неизвестен
func (t Trip) ProviderRating() *float64 {
	if t.Company != nil {
		return t.Company.Rating
	}
	if t.Driver != nil {
		return t.Driver.Rating
	}
	return nil
}

func (t Trip) ProviderName() string {
	if t.Company != nil {
		return t.Company.Name
	}
	if t.Driver != nil {
		return t.Driver.FullName()
	}
	return ""
}

type ProviderInfo struct {
	ID      uint        `json:"id"`
	Type    VehicleType `json:"type"`
	Name    string      `json:"name"`
	Rating  *float64    `json:"rating,omitempty"`
	LogoURL string      `json:"logo_url,omitempty"`
}

type TripResponse struct {
	ID                 uint            `json:"id"`
	FromCity           string          `json:"from_city"`
	ToCity             string          `json:"to_city"`
	DepartureDate      string          `json:"departure_date"`
	DepartureTime      string          `json:"departure_time"`
	Seats              int             `json:"seats"`
	AvailableSeats     int             `json:"available_seats"`
	Price              float64         `json:"price"`
	VehicleType        VehicleType     `json:"vehicle_type"`
	Status             TripStatus      `json:"status"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	Description        string          `json:"description,omitempty"`
	Preferences        TripPreferences `json:"preferences"`
	Provider           ProviderInfo    `json:"provider"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Response формирует ответ API. availableSeats передается снаружи, т.к. вычисляется при каждом чтении
func (t Trip) Response(availableSeats int) TripResponse {
	provider := ProviderInfo{Type: t.VehicleType(), Name: t.ProviderName(), Rating: t.ProviderRating()}
	if t.Company != nil {
		provider.ID = t.Company.ID
		provider.LogoURL = t.Company.LogoURL
	} else if t.DriverID != nil {
		provider.ID = *t.DriverID
	}

	return TripResponse{
		ID:                 t.ID,
		FromCity:           t.FromCity,
		ToCity:             t.ToCity,
		DepartureDate:      t.DepartureDate,
		DepartureTime:      t.DepartureTime,
		Seats:              t.Seats,
		AvailableSeats:     availableSeats,
		Price:              t.Price,
		VehicleType:        t.VehicleType(),
		Status:             t.Status,
		CancellationReason: t.CancellationReason,
		Description:        t.Description,
		Preferences:        t.Preferences,
		Provider:           provider,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}
