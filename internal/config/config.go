package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все параметры запуска сервиса
type Config struct {
	Port    string
	GinMode string

	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret string
	JWTTTL    time.Duration

	LogFormat string
	LogLevel  string

	FirebaseServerKey string

	StorageDriver string // local или s3
	UploadDir     string
	S3Bucket      string
	S3Region      string
	S3CDNDomain   string

	RabbitMQURL string

	InflightTTL time.Duration
}

// Load читает .env (если есть) и переменные окружения.
// Отсутствие .env не является ошибкой: в контейнере всё приходит через окружение.
func Load() (Config, bool) {
	envLoaded := godotenv.Load() == nil

	cfg := Config{
		Port:    getenv("PORT", "8080"),
		GinMode: os.Getenv("GIN_MODE"),

		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            getenv("DB_NAME", "gomoldova"),
		DBMaxOpenConns:    positiveInt("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdleConns:    positiveInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetime: time.Duration(positiveInt("DB_CONN_MAX_LIFETIME_MINUTES", 60)) * time.Minute,

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    parseDur(getenv("JWT_TTL", "24h"), 24*time.Hour),

		LogFormat: getenv("LOG_FORMAT", "text"),
		LogLevel:  getenv("LOG_LEVEL", "info"),

		FirebaseServerKey: os.Getenv("FIREBASE_SERVER_KEY"),

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", "local")),
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      getenv("S3_REGION", "eu-central-1"),
		S3CDNDomain:   os.Getenv("S3_CDN_DOMAIN"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		InflightTTL: parseDur(getenv("INFLIGHT_TTL", "15s"), 15*time.Second),
	}

	return cfg, envLoaded
}

// DSN строка подключения к PostgreSQL
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// RedisAddr адрес Redis в формате host:port
func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Validate проверяет обязательные параметры
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("не задан JWT_SECRET")
	}
	if c.StorageDriver == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("для STORAGE_DRIVER=s3 требуется S3_BUCKET")
	}
	if c.StorageDriver != "local" && c.StorageDriver != "s3" {
		return fmt.Errorf("неизвестный STORAGE_DRIVER: %s", c.StorageDriver)
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil && val > 0 {
		return val
	}
	return def
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
