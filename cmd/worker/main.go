// Package main - точка входа фонового процесса (Worker) EduQuest.
//
// Worker отвечает за:
// - Прогон миграций схемы при старте
// - Обработку доменных событий (квесты, проекция рейтинга)
// - Периодическое перестроение проекции рейтинга из Postgres
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/eduquest-hub/eduquest-core/config"
	"github.com/eduquest-hub/eduquest-core/internal/application/command"
	"github.com/eduquest-hub/eduquest-core/internal/application/eventhandler"
	"github.com/eduquest-hub/eduquest-core/internal/domain/leaderboard"
	"github.com/eduquest-hub/eduquest-core/internal/domain/shared"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/messaging"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/persistence/postgres"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/persistence/redis"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/scheduler"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/scheduler/jobs"
	"github.com/eduquest-hub/eduquest-core/internal/infrastructure/service"
	"github.com/eduquest-hub/eduquest-core/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env опционален: в контейнере конфигурация приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting EduQuest worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:        cfg.Database.MaxOpenConns,
		MinConns:        cfg.Database.MinIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МИГРАЦИИ СХЕМЫ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS И ПРОЕКЦИЯ РЕЙТИНГА (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var projection leaderboard.Projection

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard projection disabled", "error", err)
		} else {
			defer redisCache.Close()
			projection = service.NewGuardedProjection(redis.NewLeaderboardProjection(redisCache), log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. РЕПОЗИТОРИИ
	// ─────────────────────────────────────────────────────────────────────────
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	questRepo := postgres.NewQuestRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS И ОБРАБОТЧИКИ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	clock := timeutil.SystemClock{}
	awardXP := command.NewAwardXPHandler(learnerRepo, projection, eventBus, clock, log)
	trackQuests := command.NewTrackQuestProgressHandler(questRepo, learnerRepo, awardXP, eventBus, clock, log)

	onQuizSubmitted := eventhandler.NewOnQuizSubmittedHandler(trackQuests, log)
	if err := eventBus.Subscribe(shared.EventQuizSubmitted, onQuizSubmitted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe quiz handler: %w", err)
	}

	onRankChanged := eventhandler.NewOnRankChangedHandler(learnerRepo, projection, log)
	if err := eventBus.Subscribe(shared.EventRankChanged, onRankChanged.Handle); err != nil {
		return fmt.Errorf("failed to subscribe rank handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ПЛАНИРОВЩИК ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler

	if cfg.Scheduler.Enabled && projection != nil {
		schedConfig := scheduler.DefaultSchedulerConfig()
		schedConfig.Logger = log
		schedConfig.Timezone = cfg.App.Location
		sched = scheduler.NewScheduler(schedConfig)

		jobConfig := jobs.DefaultRebuildLeaderboardConfig()
		jobConfig.Timeout = cfg.Scheduler.JobTimeout
		rebuildJob := jobs.NewRebuildLeaderboardJob(learnerRepo, projection, log, jobConfig)

		schedule, err := rebuildSchedule(cfg)
		if err != nil {
			return fmt.Errorf("invalid rebuild schedule: %w", err)
		}
		if err := sched.Register(rebuildJob, schedule); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		// Свежая проекция сразу после старта, не дожидаясь расписания.
		if cfg.Scheduler.RebuildOnStartup {
			if _, err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
				log.Warn("initial leaderboard rebuild failed", "error", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("EduQuest worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	// Остановка идёт через deferred-вызовы в обратном порядке инициализации.
	return nil
}

// rebuildSchedule строит расписание перестроения проекции: cron-выражение,
// если задано, иначе фиксированный интервал.
func rebuildSchedule(cfg *config.Config) (scheduler.Schedule, error) {
	if expr := cfg.Scheduler.RebuildLeaderboardCron; expr != "" {
		return scheduler.ParseCronExpression(expr)
	}
	return scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval), nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
