package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salonreach-backend/config"
	"salonreach-backend/models"
	"salonreach-backend/repository"
	"salonreach-backend/routes"
	"salonreach-backend/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found")
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Promotion{},
		&models.Conversation{},
		&models.Booking{},
		&models.Campaign{},
		&models.Service{},
	); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rdb := config.ConnectRedis(cfg)

	customers := repository.NewCustomerRepository(db)
	conversations := repository.NewConversationRepository(db)
	promotions := repository.NewPromotionRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	bookings := repository.NewBookingRepository(db)
	serviceCatalog := repository.NewServiceRepository(db)

	gateway := services.NewTwilioGateway(cfg)
	backend := services.NewHTTPAppointmentBackend(cfg)
	scripts := services.NewScriptBuilder(cfg)
	engine := services.NewPromotionEngine(promotions, conversations, cfg)
	allocator := services.NewSlotAllocator(backend, cfg)
	limiter := services.NewDispatchLimiter(rdb, cfg.MaxCallsPerDay)
	booking := services.NewBookingService(customers, bookings, backend, allocator, gateway, scripts, cfg)
	orchestrator := services.NewCampaignOrchestrator(
		customers, conversations, promotions, campaigns,
		engine, booking, gateway, limiter, scripts, cfg,
	)
	notifier := services.NewSMSNotifier(gateway)
	reports := services.NewReportService(conversations, bookings, notifier, cfg)

	schedule, err := config.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		log.Fatal().Err(err).Msg("schedule load failed")
	}
	scheduler := services.NewScheduler()
	scheduler.RegisterTable(schedule, map[string]services.JobFunc{
		"daily_report": func(ctx context.Context) error {
			return reports.SendDailyReport(ctx)
		},
		"weekly_report": func(ctx context.Context) error {
			return reports.SendWeeklyReport(ctx)
		},
		"appointment_reminders": func(ctx context.Context) error {
			_, err := booking.SendAppointmentReminders(ctx, 24)
			return err
		},
		"follow_up_calls": func(ctx context.Context) error {
			_, err := orchestrator.ProcessFollowUps(ctx)
			return err
		},
		"promotional_campaigns": func(ctx context.Context) error {
			_, err := orchestrator.RunScheduledCampaign(ctx)
			return err
		},
		"retention_cleanup": func(ctx context.Context) error {
			_, err := orchestrator.CleanupOldData(ctx, cfg.DataRetentionDays)
			return err
		},
	})
	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("scheduler start failed")
	}

	go syncServiceCatalog(backend, serviceCatalog)

	router := routes.SetupRouter(routes.Deps{
		Config:        cfg,
		Customers:     customers,
		Conversations: conversations,
		Promotions:    promotions,
		Campaigns:     campaigns,
		Bookings:      bookings,
		Services:      serviceCatalog,
		Engine:        engine,
		Allocator:     allocator,
		Booking:       booking,
		Orchestrator:  orchestrator,
		Reports:       reports,
		Scripts:       scripts,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	orchestrator.Stop()
	scheduler.Stop(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("stopped")
}

// syncServiceCatalog pulls the backend's service list into the local
// table so scripts and bookings can quote real prices and durations.
func syncServiceCatalog(backend services.AppointmentBackend, repo repository.ServiceRepository) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	external, err := backend.ListServices(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("service catalog sync skipped")
		return
	}
	for _, svc := range external {
		if err := repo.Upsert(ctx, &models.Service{
			ExternalID: svc.ID,
			Name:       svc.Name,
			Price:      svc.Price,
			Duration:   svc.DurationMinutes,
			Category:   svc.Category,
			IsActive:   svc.IsActive,
		}); err != nil {
			log.Error().Err(err).Str("service", svc.Name).Msg("service upsert failed")
		}
	}
	log.Info().Int("count", len(external)).Msg("service catalog synced")
}
