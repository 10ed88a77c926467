package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-SalonCalendar/internal/api"
	"github.com/m04kA/SMC-SalonCalendar/internal/config"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	appointmentRepo "github.com/m04kA/SMC-SalonCalendar/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/dayloader"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
	"github.com/m04kA/SMC-SalonCalendar/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonCalendar/pkg/logger"
	"github.com/m04kA/SMC-SalonCalendar/pkg/metrics"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SalonCalendar...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName, nil)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозиторий (с метриками или без)
	var repository *appointmentRepo.Repository
	if cfg.Metrics.Enabled {
		repository = appointmentRepo.NewRepository(dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh))
		log.Info("Database metrics collection started")
	} else {
		repository = appointmentRepo.NewRepository(db)
	}

	// Настройки дневного представления (уже провалидированы config.Load)
	location, err := cfg.DayView.Location()
	if err != nil {
		log.Fatal("Invalid day view timezone: %v", err)
	}
	openTime, _ := types.NewTimeStringFromString(cfg.DayView.OpenTime)
	closeTime, _ := types.NewTimeStringFromString(cfg.DayView.CloseTime)

	viewOptions := dayview.Options{
		Location:         location,
		Locale:           cfg.DayView.Locale,
		SwipeThresholdPx: float64(cfg.DayView.SwipeThresholdPx),
		OpenTime:         openTime,
		CloseTime:        closeTime,
		SlotStepMinutes:  cfg.DayView.SlotStepMinutes,
	}

	// Инициализируем сервисы
	fetcher := dayloader.NewSharedFetcher(
		repository,
		time.Duration(cfg.DayView.QueryTimeout)*time.Second,
		log,
	)
	bus := events.NewBus(metricsCollector)
	idleTimeout := time.Duration(cfg.DayView.SessionIdleTimeout) * time.Second
	registry := sessions.NewRegistry(fetcher, bus, viewOptions, idleTimeout, metricsCollector, log)

	log.Info("Day view configured (timezone=%s, locale=%s, swipe_threshold=%dpx, hours=%s-%s, step=%dm, idle_timeout=%s)",
		location, cfg.DayView.Locale, cfg.DayView.SwipeThresholdPx, openTime, closeTime,
		cfg.DayView.SlotStepMinutes, idleTimeout)

	// Закрываем простаивающие сессии
	stopSweepCh := make(chan struct{})
	if idleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(idleTimeout / 2)
			defer ticker.Stop()
			for {
				select {
				case now := <-ticker.C:
					if closed := registry.SweepIdle(now); closed > 0 {
						log.Info("Idle sessions closed: %d", closed)
					}
				case <-stopSweepCh:
					return
				}
			}
		}()
	}

	// Настраиваем роутер
	deps := api.Dependencies{
		Sessions:     registry,
		Events:       bus,
		Appointments: repository,
		Logger:       log,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = metricsCollector
		deps.MetricsPath = cfg.Metrics.Path
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}
	r := api.NewRouter(deps)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Закрываем сессии: websocket потоки получают close и завершаются
	close(stopSweepCh)
	registry.CloseAll()
	log.Info("Day view sessions closed")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
