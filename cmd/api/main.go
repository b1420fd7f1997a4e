package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/moyuu-az/attendance-system/internal/config"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	appHTTP "github.com/moyuu-az/attendance-system/internal/handler/http"
	"github.com/moyuu-az/attendance-system/internal/handler/http/middleware"
	"github.com/moyuu-az/attendance-system/internal/pkg/cron"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/moyuu-az/attendance-system/internal/pkg/holiday"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
	"github.com/moyuu-az/attendance-system/internal/pkg/logger"
	"github.com/moyuu-az/attendance-system/internal/pkg/metrics"
	"github.com/moyuu-az/attendance-system/internal/pkg/sse"
	"github.com/moyuu-az/attendance-system/internal/repository/memory"
	"github.com/moyuu-az/attendance-system/internal/repository/postgresql"
	attendanceService "github.com/moyuu-az/attendance-system/internal/service/attendance"
	reportService "github.com/moyuu-az/attendance-system/internal/service/report"
	userService "github.com/moyuu-az/attendance-system/internal/service/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const appName = "attendance-api"

var version = "dev"

// storage bundles the repositories of one backend.
type storage struct {
	tx         database.Transactor
	attendance attendance.AttendanceRepository
	breaks     attendance.BreakRepository
	locker     attendance.DayLocker
	users      user.UserRepository
	rates      user.RateRepository
	pinger     appHTTP.Pinger
	close      func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel, appName, version, cfg.App.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	holidays, closeCache := newHolidayLookup(cfg, log, collector)
	defer closeCache()

	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}

	hub := sse.NewHub()
	loc := cfg.Attendance.Location

	attendanceSvc := attendanceService.NewAttendanceService(
		store.tx,
		store.attendance,
		store.breaks,
		store.rates,
		store.locker,
		hub,
		collector,
		log,
		attendanceService.Config{
			Location:        loc,
			OpenBreakPolicy: attendanceService.OpenBreakPolicy(cfg.Attendance.OpenBreakPolicy),
			StaleAfter:      cfg.Attendance.StaleAfter,
		},
	)
	userSvc := userService.NewUserService(store.tx, store.users, store.rates, log, userService.Config{
		DefaultHourlyRate: cfg.Attendance.DefaultHourlyRate,
		Location:          loc,
	})
	reportSvc := reportService.NewReportService(store.attendance, store.rates, holidays, log, reportService.Config{
		Location: loc,
	})

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitPerMinute)
	defer limiter.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		JWTService:         jwtService,
		Logger:             log,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Metrics:            metrics.Handler(registry),
		Database:           store.pinger,
		AttendanceHandler:  appHTTP.NewAttendanceHandler(attendanceSvc),
		BreakHandler:       appHTTP.NewBreakHandler(attendanceSvc),
		ReportHandler:      appHTTP.NewReportHandler(reportSvc),
		UserHandler:        appHTTP.NewUserHandler(userSvc),
		EventHandler:       appHTTP.NewEventHandler(jwtService, hub),
	})

	scheduler := cron.NewScheduler(log)
	cron.NewAttendanceJobs(attendanceSvc, log).RegisterJobs(scheduler)
	cron.NewHolidayJobs(holidays, loc, log).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", slog.String("addr", server.Addr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	if cfg.Database.Driver == config.StorageDriverMemory {
		log.Warn("Using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &storage{
			tx:         memory.NewTransactor(s),
			attendance: memory.NewAttendanceRepository(s),
			breaks:     memory.NewBreakRepository(s),
			locker:     memory.NewDayLocker(),
			users:      memory.NewUserRepository(s),
			rates:      memory.NewRateRepository(s),
			close:      func() {},
		}, nil
	}

	dsn := cfg.DatabaseURL()
	if cfg.Database.MigrateOnStart {
		if err := database.RunMigrations(dsn); err != nil {
			return nil, err
		}
		log.Info("Database migrations applied")
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &storage{
		tx:         postgresql.NewTransactor(db),
		attendance: postgresql.NewAttendanceRepository(db),
		breaks:     postgresql.NewBreakRepository(db),
		locker:     postgresql.NewDayLocker(db),
		users:      postgresql.NewUserRepository(db),
		rates:      postgresql.NewRateRepository(db),
		pinger:     db,
		close:      db.Close,
	}, nil
}

// newHolidayLookup builds the holiday source. An empty API URL disables
// holidays; a Redis address shares the cache between instances.
func newHolidayLookup(cfg *config.Config, log *slog.Logger, rec metrics.Recorder) (*holiday.Lookup, func()) {
	var provider holiday.Provider = holiday.None{}
	if cfg.Holiday.APIURL != "" {
		provider = holiday.NewClient(&http.Client{Timeout: cfg.Holiday.Timeout}, log, cfg.Holiday.APIURL)
	}

	var cache holiday.Cache
	closeCache := func() {}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = holiday.NewRedisCache(client)
		closeCache = func() { _ = client.Close() }
	}

	opts := holiday.Options{Timeout: cfg.Holiday.Timeout, TTL: cfg.Holiday.CacheTTL}
	return holiday.NewLookup(provider, cache, opts, log, rec), closeCache
}
