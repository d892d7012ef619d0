package main

import (
	"fmt"

	"gomoldova-backend/internal/config"
	"gomoldova-backend/internal/logger"
	"gomoldova-backend/internal/utils"
)

func main() {
	cfg, _ := config.Load()
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal("Не задан JWT_SECRET")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	token, claims, err := tokens.GenerateAdminJWT()
	if err != nil {
		log.WithError(err).Fatal("Ошибка генерации токена администратора")
	}

	log.WithField("expires_at", claims.ExpiresAt.Time).Info("Токен администратора создан")
	fmt.Println(token)
}
