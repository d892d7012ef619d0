package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// Pusher отправляет push-уведомление на устройство
type Pusher interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type FirebaseService struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification fcmContent        `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewFirebaseService(serverKey string) *FirebaseService {
	return &FirebaseService{
		serverKey: serverKey,
		endpoint:  fcmEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled push выключен, если не задан FIREBASE_SERVER_KEY
func (s *FirebaseService) Enabled() bool {
	return s.serverKey != ""
}

func (s *FirebaseService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if !s.Enabled() || token == "" {
		return nil
	}

	jsonData, err := json.Marshal(fcmPayload{
		To:           token,
		Notification: fcmContent{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("ошибка при маршалинге данных: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("ошибка при создании запроса: %w", err)
	}
	req.Header.Set("Authorization", "key="+s.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка при отправке запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неуспешный статус ответа FCM: %d", resp.StatusCode)
	}
	return nil
}
