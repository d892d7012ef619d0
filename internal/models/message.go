package models

import (
	"time"
)

// Message личное сообщение. Не привязано к поездке или бронированию
type Message struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	SenderID   uint       `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint       `json:"receiver_id" gorm:"not null;index"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	ReadAt     *time.Time `json:"read_at"`
}

// Counterpart собеседник относительно userID
func (m Message) Counterpart(userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation диалог, собранный из сообщений с одним собеседником
type Conversation struct {
	CounterpartID   uint    `json:"counterpart_id"`
	CounterpartName string  `json:"counterpart_name,omitempty"`
	LastMessage     Message `json:"last_message"`
	UnreadCount     int     `json:"unread_count"`
}
