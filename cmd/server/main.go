package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kavehjam/go-rbac-service/internal/config"
	"github.com/kavehjam/go-rbac-service/internal/database"
	"github.com/kavehjam/go-rbac-service/internal/handler"
	"github.com/kavehjam/go-rbac-service/internal/queue"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/router"
	"github.com/kavehjam/go-rbac-service/internal/seed"
	"github.com/kavehjam/go-rbac-service/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tokens := repository.NewTokenRepo(db, cfg.RefreshTTLDays)

	// Seeding must finish before the first request; a missing USER role
	// afterwards would fail every registration.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seed.Run(seedCtx, roles, users, cfg.BcryptCost); err != nil {
		cancelSeed()
		log.Fatalf("seed: %v", err)
	}
	cancelSeed()

	events := queue.NewPublisher()
	authSvc := service.NewAuthService(users, roles, tokens, events, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost)
	userSvc := service.NewUserService(users, roles, cfg.BcryptCost)
	roleSvc := service.NewRoleService(roles, users, events)

	// Background tasks: the expired token sweep (cancellable) and the audit
	// log consumer (runs its own reconnect loop).
	bgCtx, cancelBg := context.WithCancel(context.Background())
	sweeper := service.NewTokenSweeper(tokens, time.Duration(cfg.SweepEveryMin)*time.Minute)
	go sweeper.Run(bgCtx)
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), config.LoadRateLimitConfig(), config.NewRedisClient())
	router.RegisterAdmin(e, handler.NewUserHandler(userSvc), handler.NewRoleHandler(roleSvc), cfg.JWTSecret)
	router.RegisterResources(e, handler.NewResourceHandler(), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then stop the sweeper so
	// no sweep batch is cut off mid-delete.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	cancelBg()
	log.Printf("server stopped")
}
