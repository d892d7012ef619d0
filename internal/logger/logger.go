package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New создает logrus логгер. format: json или text
func New(format, level string) *logrus.Logger {
	return NewWithOutput(format, level, os.Stdout)
}

func NewWithOutput(format, level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	return log
}

// Discard логгер для тестов
func Discard() *logrus.Logger {
	return NewWithOutput("text", "panic", io.Discard)
}
