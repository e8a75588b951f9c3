package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/config"
	"github.com/kunal-deshmukh/drivetrack/libs/db"
	"github.com/kunal-deshmukh/drivetrack/libs/httpx"
	"github.com/kunal-deshmukh/drivetrack/libs/kafkax"
	otelx "github.com/kunal-deshmukh/drivetrack/libs/otel"
	"github.com/kunal-deshmukh/drivetrack/libs/runtime"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/branches"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/consumer"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/handlers"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/inbox"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/outbox"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	sessionRepo := storage.NewSessionRepository(pool, outboxRepo)
	scheduleCache := storage.NewBranchScheduleCache(pool)

	branchProvider, err := branches.NewBranchProvider(
		logger,
		branches.NewCachedProvider(scheduleCache, branches.NewStaticProvider(branches.DefaultSchedule())),
		config.String("BRANCH_GRPC_ADDR", ""),
	)
	if err != nil {
		logger.Error("branch provider init failed; using cached fallback", "err", err)
		branchProvider = branches.NewCachedProvider(scheduleCache, branches.NewStaticProvider(branches.DefaultSchedule()))
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if topic := strings.TrimSpace(config.String("KAFKA_CONSUME_TOPIC", "branch.schedule.updated.v1")); topic != "" {
		inboxRepo := inbox.NewRepository(pool)
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "scheduling-service"),
			Topic:   topic,
		}, consumer.ScheduleUpdatedHandler(logger, scheduleCache))
		go eventConsumer.Run(ctx)
	}

	schedulingHandler := handlers.NewSchedulingHandler(sessionRepo, branchProvider, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/schedule/slots", schedulingHandler.Slots)
	mux.HandleFunc("/api/v1/schedule/check", schedulingHandler.Check)
	mux.HandleFunc("/api/v1/schedule/availability", schedulingHandler.Availability)
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			schedulingHandler.List(w, r)
		case http.MethodPost:
			schedulingHandler.Assign(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/sessions/reschedule", schedulingHandler.RescheduleSession)
	mux.HandleFunc("/api/v1/sessions/cancel", schedulingHandler.CancelSession)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
