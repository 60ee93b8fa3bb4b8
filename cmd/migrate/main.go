// cmd/migrate/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/textloop/textloop-backend/internal/config"
	"github.com/textloop/textloop-backend/internal/db"
	"github.com/textloop/textloop-backend/internal/logger"
	"github.com/textloop/textloop-backend/internal/model"
	"github.com/textloop/textloop-backend/internal/repository"
	"github.com/textloop/textloop-backend/migrations"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration instead of applying all")
	seed := flag.Bool("seed", false, "insert a demo business and customers after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build migrator")
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("schema already up to date")
	case err != nil:
		log.Fatal().Err(err).Msg("migration failed")
	default:
		log.Info().Msg("migrations applied")
	}

	if *seed && !*down {
		if err := seedDemoData(cfg, log); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}
}

// seedDemoData creates one business with a couple of subscribed customers so
// a fresh environment has something to send to.
func seedDemoData(cfg *config.Config, log zerolog.Logger) error {
	database, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	businessRepo := &repository.BusinessRepository{DB: database}
	customerRepo := &repository.CustomerRepository{DB: database}

	business := &model.Business{
		Name:         "Blue Door Yoga",
		Phone:        "+15559990000",
		Timezone:     "America/Denver",
		VoiceProfile: "Warm and encouraging. Short sentences. No exclamation marks.",
	}
	if existing, err := businessRepo.GetByPhone(ctx, business.Phone); err != nil {
		return err
	} else if existing != nil {
		log.Info().Int("business_id", existing.ID).Msg("demo business already seeded")
		return nil
	}
	if err := businessRepo.Create(ctx, business); err != nil {
		return err
	}

	customers := []model.Customer{
		{BusinessID: business.ID, Phone: "+15550001111", FirstName: "Alice", LastName: "Nguyen",
			Timezone: "America/New_York", Subscribed: true},
		{BusinessID: business.ID, Phone: "+15550002222", FirstName: "Ben", LastName: "Okafor",
			Subscribed: true},
	}
	created, err := customerRepo.CreateBatch(ctx, customers)
	if err != nil {
		return err
	}

	log.Info().Int("business_id", business.ID).Int("customers", len(created)).Msg("demo data seeded")
	return nil
}
