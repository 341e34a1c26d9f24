package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-events-service/internal/app"
	"trivia-events-service/internal/config"
	"trivia-events-service/internal/infra/memory"
	mongostore "trivia-events-service/internal/infra/mongo"
	"trivia-events-service/internal/infra/natsbus"
	pgloader "trivia-events-service/internal/infra/postgres"
	rediscache "trivia-events-service/internal/infra/redis"
	"trivia-events-service/internal/metrics"
	"trivia-events-service/internal/scheduler"
	transport "trivia-events-service/internal/transport/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the weekly event server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	mongoClient, db, err := openMongo(ctx, cfg)
	if err != nil {
		return err
	}
	if mongoClient != nil {
		defer mongoClient.Disconnect(context.Background())
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var (
		eventSource app.EventRepository
		progress    app.ProgressStore
		wallet      app.WalletStore
		votes       app.VoteStore
	)
	if db != nil {
		eventSource = mongostore.NewEventStore(db)
		progress = mongostore.NewProgressStore(db)
		wallet = mongostore.NewWalletStore(db)
		votes = mongostore.NewVoteStore(db)
	} else {
		logger.Warn("mongo not configured, serving an in-memory demo event")
		eventSource = memory.NewEventStore(sampleEvent(time.Now()))
		progress = memory.NewProgressStore()
		wallet = memory.NewWalletStore()
		votes = memory.NewVoteStore()
	}
	eventTTL := config.TTLDuration(cfg.Events.CacheTTL, time.Minute)
	var events app.EventRepository
	if redisClient != nil {
		events = rediscache.NewEventCache(redisClient, eventSource, eventTTL)
	} else {
		events = memory.NewEventCache(eventSource, eventTTL)
	}

	m := metrics.New()
	origin := uuid.NewString()
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithRecorder(m),
		app.WithOrigin(origin),
	}

	var bus *natsbus.Bus
	if cfg.NATS.URL != "" {
		bus, err = natsbus.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer bus.Close()
		opts = append(opts, app.WithPublisher(bus))
	}

	service := app.NewEventService(events, progress, wallet, votes, quizRepo, opts...)

	if bus != nil {
		sub, err := bus.SubscribeVotes(service.HandleRemoteVote)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	rollover, err := scheduler.NewRollover(cfg.Events.RolloverSchedule, service, logger)
	if err != nil {
		return err
	}
	rollover.Start()
	defer rollover.Stop()

	secret := cfg.Auth.Secret
	if secret == "" {
		logger.Warn("auth secret not configured, using an insecure development secret")
		secret = "dev-secret"
	}
	router := transport.NewRouter(service, transport.NewHMACVerifier(secret), m, logger)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut long-lived vote streams.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("starting weekly event service", zap.String("port", finalPort), zap.String("origin", origin))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
