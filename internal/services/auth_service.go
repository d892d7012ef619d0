package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/utils"
)

const minPasswordLength = 8

// ErrInvalidCredentials неверный email или пароль. Не уточняем, что именно
var ErrInvalidCredentials = errors.New("неверный email или пароль")

type SignUpInput struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type AuthService struct {
	db       *gorm.DB
	tokens   *utils.TokenManager
	denylist TokenDenylist
	log      *logrus.Logger
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager, denylist TokenDenylist, log *logrus.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, denylist: denylist, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (models.User, string, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, "", domain.ValidationError{Field: "email", Msg: "некорректный email"}
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, "", domain.ValidationError{Field: "password", Msg: "минимум 8 символов"}
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return models.User{}, "", domain.ValidationError{Field: "firstName", Msg: "обязательное поле"}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return models.User{}, "", domain.Storage("count users", err)
	}
	if count > 0 {
		return models.User{}, "", domain.ValidationError{Field: "email", Msg: "пользователь с таким email уже существует"}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, "", domain.ValidationError{Field: "email", Msg: "пользователь с таким email уже существует"}
		}
		return models.User{}, "", domain.Storage("create user", err)
	}

	token, _, err := s.tokens.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return user, "", err
	}

	s.log.WithField("user_id", user.ID).Info("Зарегистрирован пользователь")
	return user, token, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, "", ErrInvalidCredentials
	}
	if err != nil {
		return user, "", domain.Storage("get user", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return user, "", err
	}
	return user, token, nil
}

// SignOut отзывает токен до его естественного истечения
func (s *AuthService) SignOut(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		return domain.Storage("revoke token", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, domain.NotFoundError{Resource: "пользователь", Err: err}
	}
	if err != nil {
		return user, domain.Storage("get user", err)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (models.User, error) {
	updates := map[string]interface{}{}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return models.User{}, domain.ValidationError{Field: "firstName", Msg: "обязательное поле"}
		}
		updates["first_name"] = name
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return models.User{}, domain.Storage("update profile", err)
		}
	}
	return s.Profile(ctx, userID)
}

func (s *AuthService) UpdateFCMToken(ctx context.Context, userID uint, token string) error {
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", token).Error; err != nil {
		return domain.Storage("update fcm token", err)
	}
	return nil
}

func (s *AuthService) UpdateAvatar(ctx context.Context, userID uint, url string) (models.User, error) {
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", url).Error; err != nil {
		return models.User{}, domain.Storage("update avatar", err)
	}
	return s.Profile(ctx, userID)
}
