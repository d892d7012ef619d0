package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/config"
	"gomoldova-backend/internal/db"
	"gomoldova-backend/internal/events"
	"gomoldova-backend/internal/logger"
	"gomoldova-backend/internal/middleware"
	"gomoldova-backend/internal/realtime"
	"gomoldova-backend/internal/routes"
	"gomoldova-backend/internal/services"
	"gomoldova-backend/internal/storage"
	"gomoldova-backend/internal/utils"
	"gomoldova-backend/internal/websocket"
)

func main() {
	cfg, envLoaded := config.Load()
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	if !envLoaded {
		log.Info("Файл .env не найден, используем переменные окружения")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Некорректная конфигурация")
	}

	// Устанавливаем режим релиза для продакшена
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	gdb, err := db.ConnectWithRetry(cfg, log, 5, 5*time.Second)
	if err != nil {
		log.WithError(err).Fatal("Ошибка подключения к базе данных")
	}
	if err := db.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("Ошибка миграции базы данных")
	}

	// Redis необязателен: без него realtime и блокировки работают в пределах процесса
	var (
		denylist services.TokenDenylist = services.NewMemoryDenylist()
		locker   middleware.Locker      = middleware.NewMemoryLocker()
		rdb      *redis.Client
	)
	hub := realtime.NewHub(log)
	var rtPub realtime.Publisher = hub

	rdb, err = db.NewRedisClient(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis недоступен, продолжаем без него")
	} else {
		log.Info("Успешное подключение к Redis")
		defer rdb.Close()

		denylist = services.NewRedisDenylist(rdb)
		locker = middleware.NewRedisLocker(rdb)

		bridge := realtime.NewRedisBridge(rdb, hub, log)
		rtPub = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Realtime мост Redis остановлен")
			}
		}()
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		rabbit := events.NewRabbitPublisher(cfg.RabbitMQURL, log)
		defer rabbit.Close()
		publisher = rabbit
	}

	var store storage.Storage
	switch cfg.StorageDriver {
	case "s3":
		s3Store, err := storage.NewS3(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3CDNDomain)
		if err != nil {
			log.WithError(err).Fatal("Ошибка инициализации S3")
		}
		store = s3Store
	default:
		store = storage.NewLocal(cfg.UploadDir, "/uploads")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	push := services.NewFirebaseService(cfg.FirebaseServerKey)
	if !push.Enabled() {
		log.Info("FIREBASE_SERVER_KEY не задан, push-уведомления отключены")
	}
	broadcaster := services.NewStatusBroadcaster(rtPub, log)
	notifications := services.NewNotificationService(gdb, push, rtPub, log)

	guard := booking.NewGuard(booking.NewGormStore(gdb), notifications, log,
		booking.WithEvents(publisher),
		booking.WithObserver(middleware.TrackBookingOutcome),
		booking.WithStatusListener(broadcaster),
	)

	wsManager := websocket.NewManager(hub, log)
	wsManager.Start()
	defer wsManager.Stop()

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())
	r.Use(middleware.PrometheusMiddleware())

	// Настройка доверенных прокси
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.WithError(err).Warn("Не удалось настроить доверенные прокси")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.StorageDriver != "s3" {
		r.Static("/uploads", cfg.UploadDir)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)}
		if sqlDB, err := gdb.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unavailable"
		}
		c.JSON(status, body)
	})

	deps := routes.Deps{
		Tokens:        tokens,
		Denylist:      denylist,
		Locker:        locker,
		InflightTTL:   cfg.InflightTTL,
		Auth:          services.NewAuthService(gdb, tokens, denylist, log),
		Trips:         services.NewTripService(gdb, notifications, publisher, broadcaster, log),
		Guard:         guard,
		Notifications: notifications,
		Messages:      services.NewMessageService(gdb, rtPub, log),
		Companies:     services.NewCompanyService(gdb, notifications, publisher, log),
		Storage:       store,
		WS:            wsManager,
		Log:           log,
	}
	routes.SetupRoutes(r.Group("/api"), deps)

	// WebSocket маршрут вне группы /api для совместимости с клиентом
	r.GET("/ws", middleware.JWTAuth(tokens, denylist, log), wsManager.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Сервер запущен на порту %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Ошибка запуска сервера")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Получен сигнал завершения, закрываем соединения...")
	stop()

	// Даем 30 секунд на завершение текущих запросов
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Ошибка при graceful shutdown")
	}

	log.Info("Сервер корректно завершил работу")
}
