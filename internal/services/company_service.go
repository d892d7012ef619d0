package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/events"
	"gomoldova-backend/internal/models"
)

type CompanyInput struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	LogoURL string `json:"logo_url"`
}

// CompanyFilter фильтр списка для администратора
type CompanyFilter struct {
	Status models.CompanyStatus
	Query  string
	Limit  int
	Offset int
}

type CompanyService struct {
	db       *gorm.DB
	notifier booking.Notifier
	events   events.Publisher
	log      *logrus.Logger
}

func NewCompanyService(db *gorm.DB, notifier booking.Notifier, pub events.Publisher, log *logrus.Logger) *CompanyService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &CompanyService{db: db, notifier: notifier, events: pub, log: log}
}

// Register заявка на регистрацию компании. Одна компания на пользователя
func (s *CompanyService) Register(ctx context.Context, ownerID uint, in CompanyInput) (models.Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Company{}, domain.ValidationError{Field: "name", Msg: "обязательное поле"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.Company{}, domain.ValidationError{Field: "email", Msg: "некорректный email"}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return models.Company{}, domain.Storage("count companies", err)
	}
	if count > 0 {
		return models.Company{}, domain.InvalidTransitionError{Resource: "company", From: "registered", To: "registered"}
	}

	company := models.Company{
		OwnerID: ownerID,
		Name:    name,
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		LogoURL: in.LogoURL,
		Status:  models.CompanyStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&company).Error; err != nil {
		return company, domain.Storage("create company", err)
	}

	s.log.WithFields(logrus.Fields{"company_id": company.ID, "owner_id": ownerID}).Info("Компания отправлена на модерацию")
	return company, nil
}

func (s *CompanyService) GetByOwner(ctx context.Context, ownerID uint) (models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return company, domain.NotFoundError{Resource: "компания", Err: err}
	}
	if err != nil {
		return company, domain.Storage("get company", err)
	}
	return company, nil
}

// UpdateLogo сохраняет URL загруженного логотипа
func (s *CompanyService) UpdateLogo(ctx context.Context, ownerID uint, url string) (models.Company, error) {
	company, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return company, err
	}
	if err := s.db.WithContext(ctx).Model(&company).Update("logo_url", url).Error; err != nil {
		return company, domain.Storage("update company logo", err)
	}
	company.LogoURL = url
	return company, nil
}

// List список для администратора: фильтр по статусу и поиск по названию (ILIKE)
func (s *CompanyService) List(ctx context.Context, f CompanyFilter) ([]models.Company, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Company{})
	if f.Status != "" {
		switch f.Status {
		case models.CompanyStatusPending, models.CompanyStatusApproved, models.CompanyStatusRejected:
		default:
			return nil, 0, domain.ValidationError{Field: "status", Msg: "неизвестный статус"}
		}
		q = q.Where("status = ?", f.Status)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		q = q.Where("name ILIKE ?", "%"+escapeLike(query)+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, domain.Storage("count companies", err)
	}

	var companies []models.Company
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&companies).Error; err != nil {
		return nil, 0, domain.Storage("list companies", err)
	}
	return companies, total, nil
}

func (s *CompanyService) Approve(ctx context.Context, companyID uint) (models.Company, error) {
	return s.moderate(ctx, companyID, models.CompanyStatusApproved, "")
}

func (s *CompanyService) Reject(ctx context.Context, companyID uint, reason string) (models.Company, error) {
	if strings.TrimSpace(reason) == "" {
		return models.Company{}, domain.ValidationError{Field: "reason", Msg: "укажите причину отказа"}
	}
	return s.moderate(ctx, companyID, models.CompanyStatusRejected, reason)
}

// moderate только pending-компании проходят модерацию
func (s *CompanyService) moderate(ctx context.Context, companyID uint, to models.CompanyStatus, reason string) (models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).First(&company, companyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return company, domain.NotFoundError{Resource: "компания", Err: err}
	}
	if err != nil {
		return company, domain.Storage("get company", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ? AND status = ?", companyID, models.CompanyStatusPending).
		Updates(map[string]interface{}{"status": to, "rejection_reason": reason})
	if res.Error != nil {
		return company, domain.Storage("moderate company", res.Error)
	}
	if res.RowsAffected == 0 {
		return company, domain.InvalidTransitionError{Resource: "company", From: string(company.Status), To: string(to)}
	}
	company.Status = to
	company.RejectionReason = reason

	s.log.WithFields(logrus.Fields{"company_id": companyID, "status": to}).Info("Модерация компании")

	typ, evType := models.NotificationCompanyApproved, events.CompanyApproved
	if to == models.CompanyStatusRejected {
		typ, evType = models.NotificationCompanyRejected, events.CompanyRejected
	}
	payload := models.NotificationPayload{CompanyID: company.ID, Reason: reason}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, company.OwnerID, typ, payload); err != nil {
			s.log.WithError(err).WithField("company_id", companyID).Warn("Не удалось отправить уведомление о модерации")
		}
	}
	if err := s.events.Publish(ctx, events.Event{
		Type:        evType,
		RecipientID: company.OwnerID,
		CompanyID:   company.ID,
		Status:      string(to),
		Reason:      reason,
	}); err != nil {
		s.log.WithError(err).Warn("Не удалось опубликовать событие")
	}

	return company, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
