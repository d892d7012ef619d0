package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
)

const uniqueViolationCode = "23505"

// GormStore хранилище заявок в PostgreSQL
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate создает частичный уникальный индекс: не более одной активной заявки на пару (поездка, пользователь)
func Migrate(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_booking
		ON bookings (trip_id, user_id)
		WHERE status IN ('pending', 'accepted')`).Error
}

func (s *GormStore) GetTrip(ctx context.Context, tripID uint) (models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Preload("Driver").
		Preload("Company").
		First(&trip, tripID).Error
	if err != nil {
		return trip, notFoundOr("поездка", "get trip", err)
	}
	return trip, nil
}

func (s *GormStore) GetUser(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return user, notFoundOr("пользователь", "get user", err)
	}
	return user, nil
}

func (s *GormStore) GetBooking(ctx context.Context, bookingID uint) (models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).
		Preload("Trip.Driver").
		Preload("Trip.Company").
		Preload("User").
		First(&b, bookingID).Error
	if err != nil {
		return b, notFoundOr("заявка", "get booking", err)
	}
	return b, nil
}

func (s *GormStore) FindActive(ctx context.Context, tripID, userID uint) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).
		Where("trip_id = ? AND user_id = ? AND status IN ?", tripID, userID, models.ActiveBookingStatuses).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("find active booking", err)
	}
	return &b, nil
}

func (s *GormStore) InsertPending(ctx context.Context, tripID, userID uint) (models.Booking, error) {
	b := models.Booking{TripID: tripID, UserID: userID, Status: models.BookingStatusPending}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		if isUniqueViolation(err) {
			return models.Booking{}, ErrUniqueViolation
		}
		return models.Booking{}, domain.Storage("insert booking", err)
	}
	return b, nil
}

// Accept блокирует строку поездки (SELECT ... FOR UPDATE), поэтому параллельные
// подтверждения одной поездки выполняются по очереди и не превышают вместимость
func (s *GormStore) Accept(ctx context.Context, bookingID uint) (models.Booking, error) {
	var accepted models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var head models.Booking
		if err := tx.Select("id", "trip_id").First(&head, bookingID).Error; err != nil {
			return notFoundOr("заявка", "get booking", err)
		}

		var trip models.Trip
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&trip, head.TripID).Error; err != nil {
			return notFoundOr("поездка", "lock trip", err)
		}

		// Статус перечитывается после блокировки поездки
		var b models.Booking
		if err := tx.First(&b, bookingID).Error; err != nil {
			return notFoundOr("заявка", "get booking", err)
		}
		if b.Status != models.BookingStatusPending {
			return domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(models.BookingStatusAccepted)}
		}

		var acceptedCount int64
		if err := tx.Model(&models.Booking{}).
			Where("trip_id = ? AND status = ?", trip.ID, models.BookingStatusAccepted).
			Count(&acceptedCount).Error; err != nil {
			return domain.Storage("count accepted", err)
		}

		available := trip.Seats - int(acceptedCount)
		if available <= 0 {
			return NoSeatsAvailableError{TripID: trip.ID, Available: available}
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingStatusPending).
			Update("status", models.BookingStatusAccepted)
		if res.Error != nil {
			return domain.Storage("accept booking", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(models.BookingStatusAccepted)}
		}

		b.Status = models.BookingStatusAccepted
		accepted = b
		return nil
	})
	if err != nil {
		return models.Booking{}, domain.Storage("accept booking", err)
	}
	return accepted, nil
}

func (s *GormStore) Transition(ctx context.Context, bookingID uint, ch Change) (models.Booking, error) {
	updates := map[string]interface{}{"status": ch.To}
	if ch.RejectReason != "" {
		updates["reject_reason"] = ch.RejectReason
	}
	if ch.CancelledBy != nil {
		updates["cancelled_by"] = *ch.CancelledBy
	}

	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingID, ch.From).
		Updates(updates)
	if res.Error != nil {
		return models.Booking{}, domain.Storage("update booking status", res.Error)
	}

	var b models.Booking
	if err := s.db.WithContext(ctx).First(&b, bookingID).Error; err != nil {
		return b, notFoundOr("заявка", "get booking", err)
	}
	if res.RowsAffected == 0 {
		return b, domain.InvalidTransitionError{Resource: "booking", From: string(b.Status), To: string(ch.To)}
	}
	return b, nil
}

func (s *GormStore) ListByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Trip.Driver").
		Preload("Trip.Company").
		Preload("Trip.Bookings", "status = ?", models.BookingStatusAccepted).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, domain.Storage("list user bookings", err)
	}
	return bookings, nil
}

func (s *GormStore) ListByTrip(ctx context.Context, tripID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, domain.Storage("list trip bookings", err)
	}
	return bookings, nil
}

func notFoundOr(resource, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return domain.Storage(op, err)
}

// isUniqueViolation учитывает оба варианта: с TranslateError драйвер
// возвращает gorm.ErrDuplicatedKey, без него исходную ошибку pgconn
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
