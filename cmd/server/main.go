package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	activityhandler "rollcall/internal/activity/handler"
	activityservice "rollcall/internal/activity/service"
	activitystore "rollcall/internal/activity/store"
	attendancehandler "rollcall/internal/attendance/handler"
	attendanceservice "rollcall/internal/attendance/service"
	attendancestore "rollcall/internal/attendance/store"
	"rollcall/internal/audit"
	httpapi "rollcall/internal/http"
	"rollcall/internal/membership"
	"rollcall/internal/notify"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	platformredis "rollcall/internal/platform/redis"
	registrationhandler "rollcall/internal/registration/handler"
	registrationservice "rollcall/internal/registration/service"
	"rollcall/internal/schedule"
	"rollcall/internal/token"
)

// activityStorage is the full persistence surface both feature services draw
// from; the in-memory and Postgres stores satisfy it.
type activityStorage interface {
	activityservice.ActivityStore
	registrationservice.ActivityStore
	schedule.Source
	attendanceservice.ActivityReader
}

type ledgerStorage interface {
	attendanceservice.LedgerStore
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		activities activityStorage
		ledgers    ledgerStorage
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		if err := activitystore.Migrate(db); err != nil {
			log.Error("migrate activity schema", "error", err)
			os.Exit(1)
		}
		if err := attendancestore.Migrate(db); err != nil {
			log.Error("migrate attendance schema", "error", err)
			os.Exit(1)
		}
		activities = activitystore.NewPostgres(db)
		ledgers = attendancestore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		activities = activitystore.NewInMemory()
		ledgers = attendancestore.NewInMemory()
		log.Info("using in-memory storage")
	}

	// Membership eligibility, cached in Redis when available.
	var eligibility registrationservice.EligibilityChecker = membership.AllowAll{}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		eligibility = membership.NewCachedChecker(eligibility, redisClient.Client, cfg.EligibilityCacheTTL, log)
		log.Info("eligibility cache enabled")
	}

	// Notifications: Kafka when brokers are configured, structured logs
	// otherwise.
	var notifier notify.Publisher = notify.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafka.Close(ctx)
		}()
		notifier = kafka
		log.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic)
	}

	// Audit trail, drained off the request path by a worker.
	auditStore := audit.NewInMemoryStore()
	auditInbox := make(chan audit.Event, 256)
	auditor := audit.NewChannelPublisher(auditInbox)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := audit.NewWorker(auditStore, auditInbox).Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)
	detector := schedule.NewDetector(activities, log)

	catalogSvc := activityservice.New(activities,
		activityservice.WithLogger(log),
		activityservice.WithMetrics(m),
		activityservice.WithNotifier(notifier),
		activityservice.WithAuditPublisher(auditor),
	)
	registrySvc := registrationservice.New(activities, detector, eligibility,
		registrationservice.WithLogger(log),
		registrationservice.WithMetrics(m),
		registrationservice.WithNotifier(notifier),
		registrationservice.WithAuditPublisher(auditor),
	)
	attendanceSvc := attendanceservice.New(ledgers, activities,
		attendanceservice.WithLogger(log),
		attendanceservice.WithMetrics(m),
		attendanceservice.WithNotifier(notifier),
		attendanceservice.WithAuditPublisher(auditor),
	)

	router := httpapi.NewRouter(tokens, log,
		activityhandler.New(catalogSvc, log),
		registrationhandler.New(registrySvc, log),
		attendancehandler.New(attendanceSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting rollcall", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
