package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/realtime"
)

// NotificationService хранит уведомления и доставляет их: push на устройство и событие в realtime
type NotificationService struct {
	db       *gorm.DB
	push     Pusher
	realtime realtime.Publisher
	log      *logrus.Logger
}

func NewNotificationService(db *gorm.DB, push Pusher, rt realtime.Publisher, log *logrus.Logger) *NotificationService {
	return &NotificationService{db: db, push: push, realtime: rt, log: log}
}

// Notify сохраняет уведомление. Ошибка возвращается только если не удалось записать строку;
// push и realtime выполняются по возможности
func (s *NotificationService) Notify(ctx context.Context, userID uint, typ models.NotificationType, payload models.NotificationPayload) error {
	n := models.Notification{UserID: userID, Type: typ, Payload: payload}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return domain.Storage("create notification", err)
	}

	if s.realtime != nil {
		if ev, err := realtime.NewEvent(realtime.TypeNotification, userID, n); err == nil {
			if err := s.realtime.Publish(ctx, ev); err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warn("Не удалось отправить realtime событие")
			}
		}
	}

	if s.push != nil {
		var user models.User
		if err := s.db.WithContext(ctx).Select("id", "fcm_token").First(&user, userID).Error; err == nil && user.FCMToken != "" {
			title, body := NotificationText(typ, payload)
			data := map[string]string{
				"type":            string(typ),
				"notification_id": strconv.FormatUint(uint64(n.ID), 10),
			}
			if payload.TripID != 0 {
				data["trip_id"] = strconv.FormatUint(uint64(payload.TripID), 10)
			}
			if payload.BookingID != 0 {
				data["booking_id"] = strconv.FormatUint(uint64(payload.BookingID), 10)
			}
			if err := s.push.Send(ctx, user.FCMToken, title, body, data); err != nil {
				s.log.WithError(err).WithField("user_id", userID).Warn("Не удалось отправить push-уведомление")
			}
		}
	}

	return nil
}

// List уведомления пользователя, новые первыми
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, domain.Storage("list notifications", err)
	}
	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	if err != nil {
		return 0, domain.Storage("count unread notifications", err)
	}
	return count, nil
}

// MarkRead отмечает уведомление прочитанным. Чужое уведомление неотличимо от отсутствующего
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: "уведомление", Err: err}
	}
	if err != nil {
		return domain.Storage("get notification", err)
	}
	if n.ReadAt != nil {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", notificationID).
		Update("read_at", time.Now()).Error; err != nil {
		return domain.Storage("mark notification read", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, domain.Storage("mark all notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// NotificationText заголовок и текст push-уведомления
func NotificationText(typ models.NotificationType, p models.NotificationPayload) (string, string) {
	route := fmt.Sprintf("%s → %s, %s %s", p.FromCity, p.ToCity, p.DepartureDate, p.DepartureTime)
	switch typ {
	case models.NotificationBookingRequested:
		return "Новая заявка", fmt.Sprintf("%s хочет забронировать место: %s", p.CounterpartName, route)
	case models.NotificationBookingAccepted:
		return "Бронирование подтверждено", fmt.Sprintf("%s подтвердил вашу заявку: %s", p.CounterpartName, route)
	case models.NotificationBookingRejected:
		body := fmt.Sprintf("%s отклонил вашу заявку: %s", p.CounterpartName, route)
		if p.Reason != "" {
			body += ". Причина: " + p.Reason
		}
		return "Бронирование отклонено", body
	case models.NotificationBookingCancelled:
		return "Бронирование отменено", fmt.Sprintf("%s отменил бронирование: %s", p.CounterpartName, route)
	case models.NotificationTripCancelled:
		body := "Поездка отменена: " + route
		if p.Reason != "" {
			body += ". Причина: " + p.Reason
		}
		return "Поездка отменена", body
	case models.NotificationCompanyApproved:
		return "Компания одобрена", "Ваша компания прошла модерацию и может публиковать рейсы"
	case models.NotificationCompanyRejected:
		body := "Заявка компании отклонена"
		if p.Reason != "" {
			body += ". Причина: " + p.Reason
		}
		return "Компания отклонена", body
	default:
		return "GoMoldova", "У вас новое уведомление"
	}
}
