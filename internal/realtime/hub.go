package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Типы событий, уходящих клиентам
const (
	TypeNotification  = "NOTIFICATION"
	TypeMessage       = "MESSAGE"
	TypeBookingStatus = "BOOKING_STATUS_UPDATE"
	TypeTripStatus    = "TRIP_STATUS_UPDATE"
)

// Event изменение, о котором нужно сообщить подписчикам. UserID получатель
type Event struct {
	Type    string          `json:"type"`
	UserID  uint            `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent сериализует payload в событие
func NewEvent(typ string, userID uint, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, UserID: userID, Payload: data}, nil
}

type Predicate func(Event) bool

// ForUser события конкретного пользователя
func ForUser(userID uint) Predicate {
	return func(ev Event) bool { return ev.UserID == userID }
}

// Publisher отправляет событие подписчикам: локально или через брокер
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type subscription struct {
	match Predicate
	cb    func(Event)
}

// Hub локальная рассылка событий внутри процесса. Не зависит от транспорта:
// подписчиками могут быть WebSocket-клиенты, тесты и т.д.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]subscription
	nextID uint64
	log    *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{subs: make(map[uint64]subscription), log: log}
}

// Subscribe регистрирует колбэк. Возвращает функцию отписки; повторный вызов безопасен
func (h *Hub) Subscribe(match Predicate, cb func(Event)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = subscription{match: match, cb: cb}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish доставляет событие всем подходящим подписчикам текущего процесса
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.Dispatch(ev)
	return nil
}

// Dispatch колбэки вызываются вне блокировки, чтобы подписчик мог отписаться изнутри
func (h *Hub) Dispatch(ev Event) {
	h.mu.RLock()
	targets := make([]func(Event), 0, len(h.subs))
	for _, s := range h.subs {
		if s.match == nil || s.match(ev) {
			targets = append(targets, s.cb)
		}
	}
	h.mu.RUnlock()

	for _, cb := range targets {
		cb(ev)
	}

	if h.log != nil {
		h.log.WithFields(logrus.Fields{
			"type":        ev.Type,
			"user_id":     ev.UserID,
			"subscribers": len(targets),
		}).Debug("Событие разослано")
	}
}

// Subscribers количество активных подписок
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
