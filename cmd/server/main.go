package main

import (
	"go.uber.org/zap"

	"taskhub/internal/events"
	"taskhub/internal/handler"
	"taskhub/internal/httpserver"
	"taskhub/internal/realtime"
	"taskhub/internal/repository"
	"taskhub/internal/service"
	"taskhub/pkg/config"
	"taskhub/pkg/db"
	"taskhub/pkg/logger"
	"taskhub/pkg/redisclient"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	// Init DB
	pool, err := db.NewPool(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	// Init Redis
	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	// Event bus: the websocket hub always, the amqp bridge when
	// configured. The bridge feeds the activity worker; losing it only
	// costs the mirror, never the mutation.
	hub := realtime.NewHub(log)
	targets := []events.Publisher{hub}
	if cfg.Events.AMQPURL != "" {
		bridge, err := events.NewAMQPBridge(cfg.Events.AMQPURL)
		if err != nil {
			log.Fatal("AMQP bridge initialization failed", zap.Error(err))
		}
		defer bridge.Close()
		targets = append(targets, bridge)
	}
	publisher := events.NewFanout(targets...)

	// Init Repositories
	userRepo := repository.NewUserRepository(pool, log)
	taskRepo := repository.NewTaskRepository(pool, log)
	notificationRepo := repository.NewNotificationRepository(pool, log)
	analyticsRepo := repository.NewAnalyticsRepository(pool, log)
	activityRepo := repository.NewActivityRepository(pool, log)

	// Init Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, log)
	taskService := service.NewTaskService(taskRepo, notificationRepo, userRepo, publisher, log)
	notificationService := service.NewNotificationService(notificationRepo, rdb, log)
	analyticsService := service.NewAnalyticsService(analyticsRepo, log)
	activityService := service.NewActivityService(activityRepo, log)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)

	// Router
	router := httpserver.NewRouter(
		authHandler,
		taskHandler,
		notificationHandler,
		analyticsHandler,
		activityHandler,
		hub,
		cfg.JWT.Secret,
		pool,
	)

	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
