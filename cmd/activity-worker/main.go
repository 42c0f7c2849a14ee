package main

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"taskhub/internal/events"
	"taskhub/internal/model"
	"taskhub/internal/repository"
	"taskhub/pkg/config"
	"taskhub/pkg/db"
	"taskhub/pkg/logger"
)

// The activity worker drains mirrored task events from the exchange
// into the activity_log table. It is the offline consumer behind the
// activity feed; live clients never depend on it.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	if cfg.Events.AMQPURL == "" {
		log.Fatal("events.amqp_url must be configured for the activity worker")
	}

	pool, err := db.NewPool(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer pool.Close()

	activityRepo := repository.NewActivityRepository(pool, log)

	consumer, err := events.NewConsumer(cfg.Events.AMQPURL, "activity-log", "task.*", log)
	if err != nil {
		log.Fatal("failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(func(ctx context.Context, env events.Envelope) error {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Warn("Dropping event without task id", zap.String("event", env.Event))
			return nil
		}

		entry := &model.ActivityEntry{
			Event:   env.Event,
			TaskID:  payload.ID,
			Payload: env.Data,
		}
		return activityRepo.Insert(ctx, entry)
	})

	if err := consumer.StartConsuming(context.Background()); err != nil {
		log.Fatal("consumer failed", zap.Error(err))
	}
}
