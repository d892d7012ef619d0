package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("json", "debug", &buf)
	log.WithField("booking_id", 7).Info("бронирование создано")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["booking_id"] != float64(7) {
		t.Fatalf("booking_id field missing: %v", entry)
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	log := NewWithOutput("text", "loud", &bytes.Buffer{})
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}
}
