package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;column:id;autoIncrement"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null;type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	FirstName    string    `json:"firstName" gorm:"column:first_name;not null;type:varchar(255)"`
	LastName     string    `json:"lastName" gorm:"column:last_name;type:varchar(255)"`
	Phone        string    `json:"phone" gorm:"column:phone;type:varchar(20)"`
	AvatarURL    string    `json:"avatarUrl" gorm:"column:avatar_url;type:text"`
	Role         string    `json:"role" gorm:"column:role;default:'user';type:varchar(20)"`
	Rating       *float64  `json:"rating,omitempty" gorm:"column:rating"`
	FCMToken     string    `json:"-" gorm:"column:fcm_token;type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;type:timestamp with time zone"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime;type:timestamp with time zone"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	AvatarURL string    `json:"avatarUrl"`
	Role      string    `json:"role"`
	Rating    *float64  `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		Rating:    u.Rating,
		CreatedAt: u.CreatedAt,
	}
}
