package main

import (
	"os"

	"github.com/parttimestudent/backend/internal/config"
	"github.com/parttimestudent/backend/internal/handlers"
	"github.com/parttimestudent/backend/internal/models"
	"github.com/parttimestudent/backend/internal/services"
	"github.com/parttimestudent/backend/internal/utils"
	"github.com/parttimestudent/backend/pkg/logger"
)

const logRetentionDays = 30

// appServices holds the initialized services and handlers needed by the application.
type appServices struct {
	workdayService   *services.WorkdayService
	reminderService  *services.ReminderService
	extractor        services.TimetableExtractor
	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	projectHandler   *handlers.ProjectHandler
	reportHandler    *handlers.ReportHandler
	timetableHandler *handlers.TimetableHandler
	systemLogHandler *handlers.SystemLogHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB(), logRetentionDays)

	workdayService := services.NewWorkdayService()

	// Start deadline reminder scheduler
	reportService := services.NewReportService(models.GetDB())
	reminderService := services.NewReminderService(models.GetDB(), reportService, workdayService, &cfg.Reminder)
	reminderService.StartScheduler()

	extractor := services.NewVisionExtractor(&cfg.Extraction)

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	if err := authHandler.SeedAdmin(adminUsername, adminPassword); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		workdayService:   workdayService,
		reminderService:  reminderService,
		extractor:        extractor,
		authHandler:      authHandler,
		userHandler:      handlers.NewUserHandler(models.GetDB()),
		projectHandler:   handlers.NewProjectHandler(models.GetDB()),
		reportHandler:    handlers.NewReportHandler(models.GetDB(), workdayService),
		timetableHandler: handlers.NewTimetableHandler(models.GetDB(), extractor),
		systemLogHandler: handlers.NewSystemLogHandler(models.GetDB()),
		healthHandler:    handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all background work.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")
}
