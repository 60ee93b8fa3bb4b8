// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/textloop/textloop-backend/internal/config"
	"github.com/textloop/textloop-backend/internal/controller"
	"github.com/textloop/textloop-backend/internal/db"
	"github.com/textloop/textloop-backend/internal/guard"
	"github.com/textloop/textloop-backend/internal/llm"
	"github.com/textloop/textloop-backend/internal/logger"
	"github.com/textloop/textloop-backend/internal/queue"
	"github.com/textloop/textloop-backend/internal/repository"
	"github.com/textloop/textloop-backend/internal/service"
	"github.com/textloop/textloop-backend/internal/timing"
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

	planner, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build llm client")
	}

	businessRepo := &repository.BusinessRepository{DB: database}
	customerRepo := &repository.CustomerRepository{DB: database}
	conversationRepo := &repository.ConversationRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	roadmapRepo := &repository.RoadmapRepository{DB: database}
	smsRepo := &repository.ScheduledSMSRepository{DB: database}

	roadmapService := &service.RoadmapService{
		CustomerRepo: customerRepo,
		BusinessRepo: businessRepo,
		RoadmapRepo:  roadmapRepo,
		Planner:      planner,
		Parser:       timing.NewParser(cfg.BusinessHourStart, cfg.BusinessHourEnd),
		Guard:        guard.New(),
		Log:          log,
	}
	smsService := &service.SMSService{
		SMSRepo:      smsRepo,
		CustomerRepo: customerRepo,
		Queue:        q,
		Log:          log,
	}
	inboundService := &service.InboundService{
		BusinessRepo:     businessRepo,
		CustomerRepo:     customerRepo,
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		Drafter:          planner,
		Log:              log,
	}

	businessController := &controller.BusinessController{
		BusinessRepo: businessRepo,
		CustomerRepo: customerRepo,
		MessageRepo:  messageRepo,
	}
	roadmapController := &controller.RoadmapController{RoadmapService: roadmapService}
	smsController := &controller.SMSController{SMSService: smsService}
	webhookController := &controller.WebhookController{InboundService: inboundService}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/businesses", businessController.CreateBusiness)
	r.Get("/businesses/{id}", businessController.GetBusiness)
	r.Post("/businesses/{id}/customers", businessController.ImportCustomers)
	r.Get("/businesses/{id}/customers", businessController.ListCustomers)
	r.Get("/businesses/{id}/stats", businessController.BusinessStats)

	r.Post("/customers/{id}/roadmap", roadmapController.GenerateRoadmap)
	r.Get("/customers/{id}/roadmap", roadmapController.GetRoadmap)
	r.Post("/roadmap-messages/{id}/confirm", roadmapController.ConfirmMessage)

	r.Post("/sms/send", smsController.SendSMS)
	r.Post("/webhooks/inbound", webhookController.InboundSMS)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
