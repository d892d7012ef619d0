package models

import (
	"time"
)

type CompanyStatus string

const (
	CompanyStatusPending  CompanyStatus = "pending"  // На модерации
	CompanyStatusApproved CompanyStatus = "approved" // Одобрена
	CompanyStatusRejected CompanyStatus = "rejected" // Отклонена
)

// Company автобусная компания. Публиковать рейсы может только после одобрения администратором
type Company struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	OwnerID         uint          `json:"owner_id" gorm:"not null;uniqueIndex"`
	Name            string        `json:"name" gorm:"not null;type:varchar(255)"`
	Email           string        `json:"email" gorm:"not null;type:varchar(255)"`
	Phone           string        `json:"phone" gorm:"type:varchar(20)"`
	LogoURL         string        `json:"logo_url" gorm:"type:text"`
	Status          CompanyStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	RejectionReason string        `json:"rejection_reason,omitempty" gorm:"default:''"`
	Rating          *float64      `json:"rating,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Owner           *User         `json:"-" gorm:"foreignKey:OwnerID"`
}

func (c Company) IsApproved() bool {
	return c.Status == CompanyStatusApproved
}
