package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gomoldova-backend/internal/availability"
	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/events"
	"gomoldova-backend/internal/models"
)

type TripInput struct {
	FromCity      string                 `json:"from_city" binding:"required"`
	ToCity        string                 `json:"to_city" binding:"required"`
	DepartureDate string                 `json:"departure_date" binding:"required"`
	DepartureTime string                 `json:"departure_time" binding:"required"`
	Seats         int                    `json:"seats" binding:"required"`
	Price         float64                `json:"price"`
	Description   string                 `json:"description"`
	Preferences   models.TripPreferences `json:"preferences"`
	// AsCompany рейс публикуется от имени одобренной компании пользователя
	AsCompany bool `json:"as_company"`
}

// TripUpdate частичное обновление: nil поля не меняются
type TripUpdate struct {
	DepartureDate *string                 `json:"departure_date"`
	DepartureTime *string                 `json:"departure_time"`
	Seats         *int                    `json:"seats"`
	Price         *float64                `json:"price"`
	Description   *string                 `json:"description"`
	Preferences   *models.TripPreferences `json:"preferences"`
}

type TripService struct {
	db        *gorm.DB
	notifier  booking.Notifier
	events    events.Publisher
	broadcast *StatusBroadcaster
	log       *logrus.Logger
	now       func() time.Time
}

func NewTripService(db *gorm.DB, notifier booking.Notifier, pub events.Publisher, broadcast *StatusBroadcaster, log *logrus.Logger) *TripService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &TripService{db: db, notifier: notifier, events: pub, broadcast: broadcast, log: log, now: time.Now}
}

func (s *TripService) Create(ctx context.Context, actor booking.Actor, in TripInput) (models.Trip, error) {
	trip := models.Trip{
		FromCity:      strings.TrimSpace(in.FromCity),
		ToCity:        strings.TrimSpace(in.ToCity),
		DepartureDate: strings.TrimSpace(in.DepartureDate),
		DepartureTime: strings.TrimSpace(in.DepartureTime),
		Seats:         in.Seats,
		Price:         in.Price,
		Description:   in.Description,
		Preferences:   in.Preferences,
		Status:        models.TripStatusScheduled,
	}
	if err := s.validateTrip(trip); err != nil {
		return trip, err
	}

	if in.AsCompany {
		var company models.Company
		err := s.db.WithContext(ctx).Where("owner_id = ?", actor.UserID).First(&company).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return trip, domain.ForbiddenError{Msg: "у пользователя нет зарегистрированной компании"}
		}
		if err != nil {
			return trip, domain.Storage("get company", err)
		}
		if !company.IsApproved() {
			return trip, domain.ForbiddenError{Msg: "компания еще не одобрена администратором"}
		}
		trip.CompanyID = &company.ID
		trip.Company = &company
	} else {
		uid := actor.UserID
		trip.DriverID = &uid
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&trip).Error; err != nil {
		return trip, domain.Storage("create trip", err)
	}

	s.log.WithFields(logrus.Fields{
		"trip_id":      trip.ID,
		"user_id":      actor.UserID,
		"vehicle_type": trip.VehicleType(),
	}).Info("Создана поездка")

	return s.Get(ctx, trip.ID)
}

func (s *TripService) validateTrip(t models.Trip) error {
	if t.FromCity == "" {
		return domain.ValidationError{Field: "from_city", Msg: "обязательное поле"}
	}
	if t.ToCity == "" {
		return domain.ValidationError{Field: "to_city", Msg: "обязательное поле"}
	}
	if strings.EqualFold(t.FromCity, t.ToCity) {
		return domain.ValidationError{Field: "to_city", Msg: "город назначения совпадает с городом отправления"}
	}
	date, err := time.Parse(models.DateLayout, t.DepartureDate)
	if err != nil {
		return domain.ValidationError{Field: "departure_date", Msg: "ожидается формат YYYY-MM-DD"}
	}
	if date.Before(today(s.now())) {
		return domain.ValidationError{Field: "departure_date", Msg: "дата отправления в прошлом"}
	}
	if _, err := time.Parse(models.TimeLayout, t.DepartureTime); err != nil {
		return domain.ValidationError{Field: "departure_time", Msg: "ожидается формат HH:MM"}
	}
	if t.Seats < 1 {
		return domain.ValidationError{Field: "seats", Msg: "должно быть не меньше 1"}
	}
	if t.Price < 0 {
		return domain.ValidationError{Field: "price", Msg: "не может быть отрицательной"}
	}
	return nil
}

// Get поездка с владельцем и принятыми заявками (для расчета свободных мест)
func (s *TripService) Get(ctx context.Context, tripID uint) (models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Preload("Driver").
		Preload("Company").
		Preload("Bookings", "status = ?", models.BookingStatusAccepted).
		First(&trip, tripID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return trip, domain.NotFoundError{Resource: "поездка", Err: err}
	}
	if err != nil {
		return trip, domain.Storage("get trip", err)
	}
	return trip, nil
}

// ListMine поездки пользователя как водителя и как владельца компании
func (s *TripService) ListMine(ctx context.Context, actor booking.Actor) ([]models.Trip, error) {
	var trips []models.Trip
	err := s.db.WithContext(ctx).
		Preload("Driver").
		Preload("Company").
		Preload("Bookings", "status = ?", models.BookingStatusAccepted).
		Where("driver_id = ? OR company_id IN (?)", actor.UserID,
			s.db.Model(&models.Company{}).Select("id").Where("owner_id = ?", actor.UserID)).
		Order("departure_date DESC, departure_time DESC").
		Find(&trips).Error
	if err != nil {
		return nil, domain.Storage("list my trips", err)
	}
	return trips, nil
}

func (s *TripService) Update(ctx context.Context, tripID uint, actor booking.Actor, in TripUpdate) (models.Trip, error) {
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return trip, err
	}
	if !trip.OwnedBy(actor.UserID) {
		return trip, domain.ForbiddenError{Msg: "изменять поездку может только ее владелец"}
	}
	if trip.IsFinal() {
		return trip, domain.InvalidTransitionError{Resource: "trip", From: string(trip.Status), To: "updated"}
	}

	updates := map[string]interface{}{}
	if in.DepartureDate != nil {
		trip.DepartureDate = strings.TrimSpace(*in.DepartureDate)
		updates["departure_date"] = trip.DepartureDate
	}
	if in.DepartureTime != nil {
		trip.DepartureTime = strings.TrimSpace(*in.DepartureTime)
		updates["departure_time"] = trip.DepartureTime
	}
	if in.Seats != nil {
		if accepted := trip.Seats - availability.AvailableSeats(trip); *in.Seats < accepted {
			return trip, domain.ValidationError{Field: "seats", Msg: "меньше количества подтвержденных пассажиров"}
		}
		trip.Seats = *in.Seats
		updates["seats"] = trip.Seats
	}
	if in.Price != nil {
		trip.Price = *in.Price
		updates["price"] = trip.Price
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Preferences != nil {
		updates["pref_smoking"] = in.Preferences.Smoking
		updates["pref_music"] = in.Preferences.Music
		updates["pref_pets"] = in.Preferences.Pets
	}
	if len(updates) == 0 {
		return trip, nil
	}
	if in.DepartureDate != nil || in.DepartureTime != nil {
		if err := s.validateTrip(trip); err != nil {
			return trip, err
		}
	}
	if trip.Seats < 1 {
		return trip, domain.ValidationError{Field: "seats", Msg: "должно быть не меньше 1"}
	}
	if trip.Price < 0 {
		return trip, domain.ValidationError{Field: "price", Msg: "не может быть отрицательной"}
	}

	if err := s.db.WithContext(ctx).Model(&models.Trip{}).Where("id = ?", tripID).Updates(updates).Error; err != nil {
		return trip, domain.Storage("update trip", err)
	}
	return s.Get(ctx, tripID)
}

// UpdateStatus переходы scheduled → active → completed. Отмена выполняется через Cancel
func (s *TripService) UpdateStatus(ctx context.Context, tripID uint, actor booking.Actor, to models.TripStatus) (models.Trip, error) {
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return trip, err
	}
	if !trip.OwnedBy(actor.UserID) {
		return trip, domain.ForbiddenError{Msg: "изменять поездку может только ее владелец"}
	}

	var from models.TripStatus
	switch to {
	case models.TripStatusActive:
		from = models.TripStatusScheduled
	case models.TripStatusCompleted:
		from = models.TripStatusActive
	default:
		return trip, domain.ValidationError{Field: "status", Msg: "допустимо active или completed"}
	}

	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND status = ?", tripID, from).
		Update("status", to)
	if res.Error != nil {
		return trip, domain.Storage("update trip status", res.Error)
	}
	if res.RowsAffected == 0 {
		return trip, domain.InvalidTransitionError{Resource: "trip", From: string(trip.Status), To: string(to)}
	}

	trip.Status = to
	s.broadcast.TripStatus(ctx, trip, acceptedPassengers(trip))
	return trip, nil
}

// Cancel отменяет поездку и все активные заявки на нее в одной транзакции
func (s *TripService) Cancel(ctx context.Context, tripID uint, actor booking.Actor, reason string) (models.Trip, error) {
	trip, err := s.Get(ctx, tripID)
	if err != nil {
		return trip, err
	}
	if !trip.OwnedBy(actor.UserID) && actor.Role != models.RoleAdmin {
		return trip, domain.ForbiddenError{Msg: "отменить поездку может только ее владелец"}
	}
	if trip.IsFinal() {
		return trip, domain.InvalidTransitionError{Resource: "trip", From: string(trip.Status), To: string(models.TripStatusCancelled)}
	}

	var affected []models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Trip{}).
			Where("id = ? AND status NOT IN ?", tripID, []models.TripStatus{models.TripStatusCancelled, models.TripStatusCompleted}).
			Updates(map[string]interface{}{"status": models.TripStatusCancelled, "cancellation_reason": reason})
		if res.Error != nil {
			return domain.Storage("cancel trip", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.InvalidTransitionError{Resource: "trip", From: string(trip.Status), To: string(models.TripStatusCancelled)}
		}

		if err := tx.Where("trip_id = ? AND status IN ?", tripID, models.ActiveBookingStatuses).
			Find(&affected).Error; err != nil {
			return domain.Storage("find active bookings", err)
		}
		if len(affected) == 0 {
			return nil
		}

		update := map[string]interface{}{"status": models.BookingStatusCancelled}
		if actor.UserID != 0 {
			update["cancelled_by"] = actor.UserID
		}
		if err := tx.Model(&models.Booking{}).
			Where("trip_id = ? AND status IN ?", tripID, models.ActiveBookingStatuses).
			Updates(update).Error; err != nil {
			return domain.Storage("cancel trip bookings", err)
		}
		return nil
	})
	if err != nil {
		return trip, domain.Storage("cancel trip", err)
	}

	trip.Status = models.TripStatusCancelled
	trip.CancellationReason = reason

	s.log.WithFields(logrus.Fields{
		"trip_id":  tripID,
		"bookings": len(affected),
	}).Info("Поездка отменена")

	passengers := make([]uint, 0, len(affected))
	for _, b := range affected {
		passengers = append(passengers, b.UserID)

		payload := models.TripSummary(trip)
		payload.BookingID = b.ID
		payload.CounterpartID = trip.OwnerUserID()
		payload.CounterpartName = trip.ProviderName()
		payload.Reason = reason
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, b.UserID, models.NotificationTripCancelled, payload); err != nil {
				s.log.WithError(err).WithField("user_id", b.UserID).Warn("Не удалось отправить уведомление об отмене поездки")
			}
		}
		if err := s.events.Publish(ctx, events.Event{
			Type:        events.TripCancelled,
			RecipientID: b.UserID,
			BookingID:   b.ID,
			TripID:      tripID,
			Reason:      reason,
		}); err != nil {
			s.log.WithError(err).Warn("Не удалось опубликовать событие")
		}
	}
	s.broadcast.TripStatus(ctx, trip, passengers)

	return trip, nil
}

// Search загружает актуальные поездки (не отмененные, не завершенные, не в прошлом)
// и применяет к ним фильтры и сортировку в памяти
func (s *TripService) Search(ctx context.Context, f availability.Filters) (availability.Result, error) {
	if err := f.Validate(); err != nil {
		return availability.Result{}, err
	}

	var trips []models.Trip
	err := s.db.WithContext(ctx).
		Preload("Driver").
		Preload("Company").
		Preload("Bookings", "status = ?", models.BookingStatusAccepted).
		Where("status NOT IN ?", []models.TripStatus{models.TripStatusCancelled, models.TripStatusCompleted}).
		Where("departure_date >= ?", today(s.now()).Format(models.DateLayout)).
		Find(&trips).Error
	if err != nil {
		return availability.Result{}, domain.Storage("search trips", err)
	}

	return availability.Search(trips, f), nil
}

func acceptedPassengers(t models.Trip) []uint {
	var ids []uint
	for _, b := range t.Bookings {
		if b.Status == models.BookingStatusAccepted {
			ids = append(ids, b.UserID)
		}
	}
	return ids
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
