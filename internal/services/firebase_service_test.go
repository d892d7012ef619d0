package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFirebaseSend(t *testing.T) {
	var got fcmPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fcm := NewFirebaseService("secret")
	fcm.endpoint = srv.URL

	err := fcm.Send(context.Background(), "device-token", "Заголовок", "Текст", map[string]string{"trip_id": "4"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if auth != "key=secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.To != "device-token" || got.Notification.Title != "Заголовок" || got.Data["trip_id"] != "4" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestFirebaseSendFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	fcm := NewFirebaseService("secret")
	fcm.endpoint = srv.URL

	if err := fcm.Send(context.Background(), "device-token", "t", "b", nil); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestFirebaseDisabled(t *testing.T) {
	fcm := NewFirebaseService("")
	fcm.endpoint = "http://127.0.0.1:0"
	if fcm.Enabled() {
		t.Fatalf("service without key must be disabled")
	}
	if err := fcm.Send(context.Background(), "device-token", "t", "b", nil); err != nil {
		t.Fatalf("disabled service must be a no-op, got %v", err)
	}
}
