package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gomoldova-backend/internal/domain"
	"gomoldova-backend/internal/models"
	"gomoldova-backend/internal/realtime"
)

const maxMessageLength = 2000

type MessageService struct {
	db       *gorm.DB
	realtime realtime.Publisher
	log      *logrus.Logger
}

func NewMessageService(db *gorm.DB, rt realtime.Publisher, log *logrus.Logger) *MessageService {
	return &MessageService{db: db, realtime: rt, log: log}
}

func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return models.Message{}, domain.ValidationError{Field: "content", Msg: "сообщение не может быть пустым"}
	case utf8.RuneCountInString(content) > maxMessageLength:
		return models.Message{}, domain.ValidationError{Field: "content", Msg: "сообщение слишком длинное"}
	case receiverID == 0:
		return models.Message{}, domain.ValidationError{Field: "receiver_id", Msg: "обязательное поле"}
	case senderID == receiverID:
		return models.Message{}, domain.ValidationError{Field: "receiver_id", Msg: "нельзя отправить сообщение самому себе"}
	}

	var receiver models.User
	err := s.db.WithContext(ctx).Select("id").First(&receiver, receiverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Message{}, domain.NotFoundError{Resource: "получатель", Err: err}
	}
	if err != nil {
		return models.Message{}, domain.Storage("get receiver", err)
	}

	msg := models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return msg, domain.Storage("create message", err)
	}

	if s.realtime != nil {
		if ev, err := realtime.NewEvent(realtime.TypeMessage, receiverID, msg); err == nil {
			if err := s.realtime.Publish(ctx, ev); err != nil {
				s.log.WithError(err).WithField("user_id", receiverID).Warn("Не удалось отправить realtime событие")
			}
		}
	}

	return msg, nil
}

// Conversation переписка с собеседником в хронологическом порядке
func (s *MessageService) Conversation(ctx context.Context, userID, counterpartID uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, domain.Storage("get conversation", err)
	}

	// Выбираем последние limit сообщений, отдаем от старых к новым
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Conversations список диалогов пользователя, последние активные первыми
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, domain.Storage("list messages", err)
	}

	convs := GroupConversations(userID, msgs)
	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]uint, len(convs))
	for i, c := range convs {
		ids[i] = c.CounterpartID
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "first_name", "last_name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, domain.Storage("load counterparts", err)
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	for i := range convs {
		convs[i].CounterpartName = names[convs[i].CounterpartID]
	}

	return convs, nil
}

// MarkConversationRead отмечает прочитанными входящие сообщения от собеседника
func (s *MessageService) MarkConversationRead(ctx context.Context, userID, counterpartID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", counterpartID, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, domain.Storage("mark messages read", res.Error)
	}
	return res.RowsAffected, nil
}

// GroupConversations группирует сообщения по собеседнику. Диалоги упорядочены
// по времени последнего сообщения, новые первыми
func GroupConversations(userID uint, msgs []models.Message) []models.Conversation {
	byCounterpart := make(map[uint]*models.Conversation)
	for _, m := range msgs {
		cp := m.Counterpart(userID)
		conv, ok := byCounterpart[cp]
		if !ok {
			conv = &models.Conversation{CounterpartID: cp, LastMessage: m}
			byCounterpart[cp] = conv
		} else if m.CreatedAt.After(conv.LastMessage.CreatedAt) ||
			(m.CreatedAt.Equal(conv.LastMessage.CreatedAt) && m.ID > conv.LastMessage.ID) {
			conv.LastMessage = m
		}
		if m.ReceiverID == userID && m.ReadAt == nil {
			conv.UnreadCount++
		}
	}

	out := make([]models.Conversation, 0, len(byCounterpart))
	for _, c := range byCounterpart {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessage, out[j].LastMessage
		if !li.CreatedAt.Equal(lj.CreatedAt) {
			return li.CreatedAt.After(lj.CreatedAt)
		}
		return li.ID > lj.ID
	})
	return out
}
