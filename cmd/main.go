package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/insightboard/auth-service/config"
	"github.com/insightboard/auth-service/db"
	"github.com/insightboard/auth-service/internal/auth/handler"
	repo "github.com/insightboard/auth-service/internal/auth/repository/postgres"
	"github.com/insightboard/auth-service/internal/auth/service"
	"github.com/insightboard/auth-service/pkg/crypto"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	pool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	repository := repo.NewPostgresRepository(pool)

	tokenService, err := service.NewTokenService(cfg.TokenPrivateKey, cfg.TokenIssuer, cfg.TokenAudience,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin)
	if err != nil {
		log.Fatal().Err(err).Msg("init token service")
	}

	guard := service.NewLoginGuard(repository, repository, cfg)
	sessionService := service.NewSessionService(repository, repository, guard, tokenService, crypto.NewArgon2(), cfg)
	authHandler := handler.NewAuthHandler(sessionService, tokenService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("auth service listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
