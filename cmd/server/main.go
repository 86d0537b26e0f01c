package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brilliance/launcher-gateway/internal/db"
	"github.com/brilliance/launcher-gateway/internal/handlers"
	"github.com/brilliance/launcher-gateway/internal/host"
	"github.com/brilliance/launcher-gateway/internal/host/hostcatalog"
	"github.com/brilliance/launcher-gateway/internal/host/redisadmin"
	"github.com/brilliance/launcher-gateway/internal/host/sysinfo"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/middleware"
	"github.com/brilliance/launcher-gateway/internal/providers"
	"github.com/brilliance/launcher-gateway/internal/providers/anthropic"
	"github.com/brilliance/launcher-gateway/internal/providers/gemini"
	"github.com/brilliance/launcher-gateway/internal/providers/openai"
	convrepo "github.com/brilliance/launcher-gateway/internal/repos/conversation"
	credrepo "github.com/brilliance/launcher-gateway/internal/repos/credential"
	settingsrepo "github.com/brilliance/launcher-gateway/internal/repos/settings"
	"github.com/brilliance/launcher-gateway/internal/sanitize"
	"github.com/brilliance/launcher-gateway/internal/server"
	"github.com/brilliance/launcher-gateway/internal/services"
	"github.com/brilliance/launcher-gateway/internal/store"
	"github.com/brilliance/launcher-gateway/internal/tools"
	"github.com/brilliance/launcher-gateway/internal/utils"
	"github.com/brilliance/launcher-gateway/internal/vault"
)

func main() {
	// Logger
	logMode := os.Getenv("ENV")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	authSecret := utils.GetEnv("JWT_SECRET", "", log)
	securityKey := utils.GetEnv("SECURITY_KEY", "", log)
	allowOrigins := server.SplitOrigins(utils.GetEnv("ALLOWED_ORIGINS", "", log))

	// Database
	dbService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	threadRepo := convrepo.NewThreadRepo(gdb, log)
	messageRepo := convrepo.NewMessageRepo(gdb, log)
	credentialRepo := credrepo.NewRepo(gdb, log)
	settingsRepo := settingsrepo.NewRepo(gdb, log)

	// Host surface
	log.Info("Setting up host services from main...")
	hostSurface := host.Host{
		Content: hostcatalog.New(gdb, log),
		Cache:   host.Unavailable{},
		Queue:   host.Unavailable{},
		System:  sysinfo.New("Launcher Gateway", dbService.Driver()),
	}
	if redisService, err := redisadmin.New(log); err != nil {
		// Cache and queue tools answer with error payloads instead.
		log.Warn("Redis unavailable, cache and queue tools disabled", "error", err)
	} else {
		hostSurface.Cache = redisService
		hostSurface.Queue = redisService
	}

	// Services
	log.Info("Setting up Services from main...")
	credentialVault, err := vault.New(log, credentialRepo, securityKey)
	if err != nil {
		log.Error("Could not init credential vault", "error", err)
		os.Exit(1)
	}
	conversationStore := store.NewGormStore(gdb, log, threadRepo, messageRepo)
	registry := tools.NewHostRegistry(log, hostSurface)
	resolver := providers.NewSet(
		anthropic.New(log),
		openai.New(log),
		gemini.New(log),
	)
	sanitizer := sanitize.NewPolicy()
	agentService := services.NewAgentService(log, conversationStore, credentialVault, resolver, registry, settingsRepo, sanitizer)
	settingsService := services.NewSettingsService(log, settingsRepo, credentialVault, resolver)

	// Handlers
	log.Info("Setting up handlers from main...")
	chatHandler := handlers.NewChatHandler(log, agentService)
	settingsHandler := handlers.NewSettingsHandler(log, settingsService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware, err := middleware.NewAuthMiddleware(log, authSecret)
	if err != nil {
		log.Error("Could not init auth middleware", "error", err)
		os.Exit(1)
	}

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  authMiddleware,
		ChatHandler:     chatHandler,
		SettingsHandler: settingsHandler,
		AllowOrigins:    allowOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
