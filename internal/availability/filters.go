package availability

import (
	"strings"

	"gomoldova-backend/internal/domain"
)

type VehicleFilter string

const (
	VehicleAll VehicleFilter = "all"
	VehicleCar VehicleFilter = "car"
	VehicleBus VehicleFilter = "bus"
)

type TimeOfDay string

const (
	TimeAll       TimeOfDay = "all"
	TimeMorning   TimeOfDay = "morning"   // [5,12)
	TimeAfternoon TimeOfDay = "afternoon" // [12,17)
	TimeEvening   TimeOfDay = "evening"   // [17,22)
	TimeNight     TimeOfDay = "night"     // [22,24) и [0,5)
)

type SortOrder string

const (
	SortDateAsc   SortOrder = "date_asc"
	SortDateDesc  SortOrder = "date_desc"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortSeatsAsc  SortOrder = "seats_asc"
	SortSeatsDesc SortOrder = "seats_desc"
)

// PriceRange включительные границы цены
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences флаги, выставленные в true, обязательны для поездки
type Preferences struct {
	Smoking bool `json:"smoking"`
	Music   bool `json:"music"`
	Pets    bool `json:"pets"`
}

// Filters критерии поиска. Нулевые значения означают «не фильтровать».
type Filters struct {
	FromCity      string        `json:"from_city"`
	ToCity        string        `json:"to_city"`
	Date          string        `json:"date"`
	PriceRange    *PriceRange   `json:"priceRange,omitempty"`
	VehicleType   VehicleFilter `json:"vehicleType"`
	DepartureTime TimeOfDay     `json:"departureTime"`
	MinSeats      int           `json:"minSeats"`
	MinRating     float64       `json:"minRating"`
	Preferences   Preferences   `json:"preferences"`
	SortBy        SortOrder     `json:"sortBy"`
}

// HasSearchText заполнено ли хотя бы одно текстовое поле поиска
func (f Filters) HasSearchText() bool {
	return strings.TrimSpace(f.FromCity) != "" ||
		strings.TrimSpace(f.ToCity) != "" ||
		strings.TrimSpace(f.Date) != ""
}

// Normalize подставляет значения по умолчанию для пустых перечислений
func (f Filters) Normalize() Filters {
	if f.VehicleType == "" {
		f.VehicleType = VehicleAll
	}
	if f.DepartureTime == "" {
		f.DepartureTime = TimeAll
	}
	if f.SortBy == "" {
		f.SortBy = SortDateAsc
	}
	f.FromCity = strings.TrimSpace(f.FromCity)
	f.ToCity = strings.TrimSpace(f.ToCity)
	f.Date = strings.TrimSpace(f.Date)
	return f
}

func (f Filters) Validate() error {
	n := f.Normalize()

	switch n.VehicleType {
	case VehicleAll, VehicleCar, VehicleBus:
	default:
		return domain.ValidationError{Field: "vehicleType", Msg: "допустимо all, car или bus"}
	}

	switch n.DepartureTime {
	case TimeAll, TimeMorning, TimeAfternoon, TimeEvening, TimeNight:
	default:
		return domain.ValidationError{Field: "departureTime", Msg: "неизвестный интервал"}
	}

	switch n.SortBy {
	case SortDateAsc, SortDateDesc, SortPriceAsc, SortPriceDesc, SortSeatsAsc, SortSeatsDesc:
	default:
		return domain.ValidationError{Field: "sortBy", Msg: "неизвестная сортировка"}
	}

	if n.PriceRange != nil && n.PriceRange.Min > n.PriceRange.Max {
		return domain.ValidationError{Field: "priceRange", Msg: "минимум больше максимума"}
	}
	if n.MinSeats < 0 {
		return domain.ValidationError{Field: "minSeats", Msg: "не может быть отрицательным"}
	}
	if n.MinRating < 0 {
		return domain.ValidationError{Field: "minRating", Msg: "не может быть отрицательным"}
	}
	return nil
}

// bucketOf интервал суток по часу отправления
func bucketOf(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 22:
		return TimeEvening
	default:
		return TimeNight
	}
}
