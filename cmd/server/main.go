package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/vconnect/portal-backend/internal/config"
	"github.com/vconnect/portal-backend/internal/database"
	"github.com/vconnect/portal-backend/internal/handler"
	"github.com/vconnect/portal-backend/internal/logger"
	"github.com/vconnect/portal-backend/internal/repository"
	"github.com/vconnect/portal-backend/internal/router"
	"github.com/vconnect/portal-backend/internal/service"
	"github.com/vconnect/portal-backend/internal/validator"
	"github.com/vconnect/portal-backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting V-Connect Portal backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to create upload directory")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pools, err := database.NewPools(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pools.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pools.App)
	adminUserRepo := repository.NewUserRepository(pools.Service)
	departmentRepo := repository.NewDepartmentRepository(pools.App)
	classRepo := repository.NewClassRepository(pools.App)
	studentRepo := repository.NewStudentRepository(pools.App)
	attendanceRepo := repository.NewAttendanceRepository(pools.App)
	libraryRepo := repository.NewLibraryRepository(pools.App)
	librarySweepRepo := repository.NewLibraryRepository(pools.Service)
	groupRepo := repository.NewGroupRepository(pools.App)
	messageRepo := repository.NewMessageRepository(pools.App)
	callRepo := repository.NewCallRepository(pools.App)
	meetingRepo := repository.NewMeetingRepository(pools.App)
	workloadRepo := repository.NewWorkloadRepository(pools.App)
	cardRepo := repository.NewIDCardRepository(pools.App)
	dashboardRepo := repository.NewDashboardRepository(pools.Service)
	settingRepo := repository.NewSettingRepository(pools.App)
	presenceRepo := repository.NewPresenceRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	events := service.NewEventBus(rdb, log)
	authService := service.NewAuthService(cfg, rdb, userRepo)
	settingService := service.NewSettingService(settingRepo, log)
	userService := service.NewUserService(adminUserRepo, authService)
	departmentService := service.NewDepartmentService(departmentRepo, userRepo)
	classService := service.NewClassService(classRepo, studentRepo, userRepo)
	attendanceService := service.NewAttendanceService(cfg, attendanceRepo, studentRepo, classRepo, settingService)
	libraryService := service.NewLibraryService(cfg, libraryRepo, librarySweepRepo, studentRepo, settingService)
	groupService := service.NewGroupService(groupRepo, messageRepo, studentRepo, userRepo, events, rdb, log)
	callService := service.NewCallService(cfg, callRepo, groupRepo, groupService, events)
	presenceService := service.NewPresenceService(presenceRepo, callRepo, events, log)
	workloadService := service.NewWorkloadService(cfg, workloadRepo, userRepo, rdb, log)
	studentService := service.NewStudentService(studentRepo, classRepo, userRepo, authService, workloadService)
	meetingService := service.NewMeetingService(meetingRepo, userRepo, workloadService)
	cardService := service.NewIDCardService(cfg, cardRepo)
	mediaService := service.NewMediaService(cfg, userService)
	dashboardService := service.NewDashboardService(dashboardRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		User:        handler.NewUserHandler(userService),
		Department:  handler.NewDepartmentHandler(departmentService),
		Class:       handler.NewClassHandler(classService),
		Student:     handler.NewStudentHandler(studentService, cfg.MaxUploadBytes),
		Attendance:  handler.NewAttendanceHandler(attendanceService),
		Library:     handler.NewLibraryHandler(libraryService),
		Group:       handler.NewGroupHandler(groupService),
		GroupEvents: handler.NewGroupEventsHandler(groupService, presenceService, events, log),
		Call:        handler.NewCallHandler(callService),
		Meeting:     handler.NewMeetingHandler(meetingService),
		Workload:    handler.NewWorkloadHandler(workloadService),
		IDCard:      handler.NewIDCardHandler(cardService),
		Media:       handler.NewMediaHandler(mediaService),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Setting:     handler.NewSettingHandler(settingService),
		System:      handler.NewSystemHandler(rdb, pools, log),
		WS:          handler.NewWSHandler(groupService, presenceService, userService, events, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(workerCtx)

	messageWorker := worker.NewMessageWorker(pools.App, messageRepo, rdb, log)
	fineWorker := worker.NewFineWorker(libraryService, cfg.FineSweepCron, log)

	workers.Go(func() error {
		messageWorker.Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		return fineWorker.Start(workerCtx)
	})

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")
	case <-workerCtx.Done():
		log.Error().Msg("Background worker exited, shutting down")
	}

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; the message worker flushes its batch first.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
