// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/textloop/textloop-backend/internal/config"
	"github.com/textloop/textloop-backend/internal/db"
	"github.com/textloop/textloop-backend/internal/delivery"
	"github.com/textloop/textloop-backend/internal/logger"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/repository"
	"github.com/textloop/textloop-backend/internal/scheduler"
	"github.com/textloop/textloop-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	q, err := queue.NewAMQPQueue(cfg.AMQPURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer q.Close()

	businessRepo := &repository.BusinessRepository{DB: database}
	customerRepo := &repository.CustomerRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	roadmapRepo := &repository.RoadmapRepository{DB: database}
	smsRepo := &repository.ScheduledSMSRepository{DB: database}

	var sender delivery.Sender
	switch cfg.DeliveryDriver {
	case "twilio":
		sender = delivery.NewTwilioSender(cfg)
	default:
		sender = delivery.NewMockSender()
	}
	log.Info().Str("driver", cfg.DeliveryDriver).Msg("delivery driver selected")

	dispatch := service.NewDispatchService(messageRepo, smsRepo, customerRepo, businessRepo, roadmapRepo, sender, log)
	poller := scheduler.New(messageRepo, smsRepo, q, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msg("worker consuming send jobs")
		return q.Consume(ctx, dispatch.Handle)
	})
	g.Go(func() error {
		log.Info().Dur("interval", cfg.DispatchPollInterval).Msg("poller started")
		return poller.Start(ctx, cfg.DispatchPollInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("worker exited")
	}
	log.Info().Msg("worker stopped")
}
