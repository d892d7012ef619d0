package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gomoldova-backend/internal/booking"
	"gomoldova-backend/internal/handlers"
	"gomoldova-backend/internal/middleware"
	"gomoldova-backend/internal/services"
	"gomoldova-backend/internal/storage"
	"gomoldova-backend/internal/utils"
	"gomoldova-backend/internal/websocket"
)

// Deps все, что нужно маршрутам
type Deps struct {
	Tokens        *utils.TokenManager
	Denylist      services.TokenDenylist
	Locker        middleware.Locker
	InflightTTL   time.Duration
	Auth          *services.AuthService
	Trips         *services.TripService
	Guard         *booking.Guard
	Notifications *services.NotificationService
	Messages      *services.MessageService
	Companies     *services.CompanyService
	Storage       storage.Storage
	WS            *websocket.Manager
	Log           *logrus.Logger
}

func SetupRoutes(api *gin.RouterGroup, d Deps) {
	// Публичные маршруты для аутентификации
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", handlers.SignUp(d.Auth))
		auth.POST("/sign-in", handlers.SignIn(d.Auth))
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(d.Tokens, d.Denylist, d.Log))

	// Повторная отправка того же перехода, пока первый не завершен, отклоняется
	once := middleware.InFlightGuard(d.Locker, d.InflightTTL, d.Log)
	{
		protected.POST("/auth/sign-out", handlers.SignOut(d.Auth))

		// Профиль
		protected.GET("/profile", handlers.GetProfile(d.Auth))
		protected.PUT("/profile", handlers.UpdateProfile(d.Auth))
		protected.PUT("/fcm-token", handlers.UpdateFCMToken(d.Auth))
		protected.POST("/profile/avatar", handlers.UploadAvatar(d.Auth, d.Storage))

		// Поездки
		protected.POST("/trips", once, handlers.TripCreate(d.Trips))
		protected.GET("/trips/mine", handlers.TripListMine(d.Trips))
		protected.POST("/trips/search", handlers.TripSearch(d.Trips))
		protected.GET("/trips/:id", handlers.TripGet(d.Trips))
		protected.PUT("/trips/:id", handlers.TripUpdate(d.Trips))
		protected.PUT("/trips/:id/status", once, handlers.TripUpdateStatus(d.Trips))
		protected.PUT("/trips/:id/cancel", once, handlers.TripCancel(d.Trips))
		protected.GET("/trips/:id/bookings", handlers.BookingListByTrip(d.Guard))

		// Заявки на бронирование
		protected.POST("/bookings", once, handlers.BookingCreate(d.Guard))
		protected.GET("/bookings", handlers.BookingListMine(d.Guard))
		protected.PUT("/bookings/:id/accept", once, handlers.BookingAccept(d.Guard))
		protected.PUT("/bookings/:id/reject", once, handlers.BookingReject(d.Guard))
		protected.PUT("/bookings/:id/cancel", once, handlers.BookingCancel(d.Guard))

		// Уведомления
		protected.GET("/notifications", handlers.NotificationList(d.Notifications))
		protected.GET("/notifications/unread-count", handlers.NotificationUnreadCount(d.Notifications))
		protected.PUT("/notifications/read-all", handlers.NotificationMarkAllRead(d.Notifications))
		protected.PUT("/notifications/:id/read", handlers.NotificationMarkRead(d.Notifications))

		// Сообщения
		protected.POST("/messages", handlers.MessageSend(d.Messages))
		protected.GET("/messages/conversations", handlers.MessageConversations(d.Messages))
		protected.GET("/messages/:userId", handlers.MessageConversation(d.Messages))
		protected.PUT("/messages/:userId/read", handlers.MessageMarkRead(d.Messages))

		// Компании
		protected.POST("/companies", once, handlers.CompanyRegister(d.Companies))
		protected.GET("/companies/mine", handlers.CompanyGetMine(d.Companies))
		protected.POST("/companies/mine/logo", handlers.CompanyUploadLogo(d.Companies, d.Storage))

		protected.POST("/upload", handlers.UploadFile(d.Storage))

		// WebSocket подключение для получения обновлений в реальном времени
		protected.GET("/ws", d.WS.Handler())
	}

	admin := protected.Group("/admin", middleware.AdminOnly())
	{
		admin.GET("/companies", handlers.AdminCompanyList(d.Companies))
		admin.PUT("/companies/:id/approve", once, handlers.AdminCompanyApprove(d.Companies))
		admin.PUT("/companies/:id/reject", once, handlers.AdminCompanyReject(d.Companies))
	}
}
