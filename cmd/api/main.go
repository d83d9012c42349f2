package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lkalantari/askout/internal/config"
	"github.com/lkalantari/askout/internal/events"
	"github.com/lkalantari/askout/internal/handlers"
	"github.com/lkalantari/askout/internal/repository"
	"github.com/lkalantari/askout/internal/services"
	xhttp "github.com/lkalantari/askout/pkg/http"
	"github.com/lkalantari/askout/pkg/logger"
	"github.com/lkalantari/askout/pkg/pg"
	"github.com/lkalantari/askout/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	// publish-only stream, the notifier owns the consumer side
	stream, err := events.NewStream(redisAdap, events.StreamConfig{
		Name:   config.Get().QueueName,
		MaxLen: config.Get().QueueMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event stream", "error", err)
		return
	}

	expiry, err := services.ParseExpiryPolicy(config.Get().ExpiryCutoff, config.Get().ExpiryWindowDays)
	if err != nil {
		logger.Error("failed parsing expiry policy", "error", err)
		return
	}

	messageRepo := repository.NewMessageRepository(db)
	responseRepo := repository.NewResponseRepository(db)

	// services
	messageService := services.NewMessageService(messageRepo, responseRepo, stream, expiry, config.Get().AppBaseUrl)
	trackingService := services.NewTrackingService(messageRepo, responseRepo)
	healthService := services.NewHealthService()

	// v1 handlers
	messageHandler := handlers.NewMessageHandler(messageService)
	responseHandler := handlers.NewResponseHandler(messageService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterMessageRoutes(g, messageHandler)
	handlers.RegisterResponseRoutes(g, responseHandler)
	handlers.RegisterTrackingRoutes(g, trackingHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
