package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auction "auction-lifecycle/internal/auctionService"
	"auction-lifecycle/internal/config"
	"auction-lifecycle/internal/finalizer"
	"auction-lifecycle/internal/publisher"
	"auction-lifecycle/internal/repository"
	"auction-lifecycle/internal/repository/postgres"
	"auction-lifecycle/internal/repository/redisrepo"
	"auction-lifecycle/internal/repository/sqlite"
	"auction-lifecycle/internal/server"
	"auction-lifecycle/internal/validation"
	"auction-lifecycle/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Fatal("auction server stopped with error", map[string]any{"error": err.Error()})
	}
	utils.Info("auction server stopped gracefully", nil)
}

func run(ctx context.Context, cfg config.Config) error {
	repo, redisClient, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	pub, closePub, err := openPublisher(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closePub()

	engine := finalizer.NewEngine(repo, pub)

	timers := finalizer.NewTimerScheduler(ctx, engine, cfg.FinalizeTimeout)
	defer timers.Stop()

	sweeper := finalizer.NewSweeper(repo, engine, finalizer.SweeperConfig{
		Interval:    cfg.SweepInterval,
		BatchSize:   cfg.SweepBatchSize,
		Concurrency: cfg.SweepConcurrency,
		Timeout:     cfg.FinalizeTimeout,
	})

	auctionSvc := auction.NewAuctionService(repo, pub, validation.NewValidator(),
		auction.WithInitialStatus(cfg.InitialAuctionStatus()),
		auction.WithScheduler(timers),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.SetupRouter(auctionSvc, engine),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("Starting auction server", map[string]any{
			"addr":      cfg.Addr(),
			"store":     cfg.Store,
			"publisher": cfg.Publisher,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Info("Shutting down auction server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openRepository selects the store backend. The redis client is returned when
// the redis store is used so the redis publisher can share it.
func openRepository(ctx context.Context, cfg config.Config) (repository.AuctionRepository, *redis.Client, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() { _ = store.Close() }, nil

	case config.StorePostgres:
		store, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		return store, nil, store.Close, nil

	case config.StoreRedis:
		store, err := redisrepo.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store.Client(), func() { _ = store.Close() }, nil

	default:
		utils.Warn("using in-memory auction store; data is lost on restart", nil)
		return repository.NewMemoryRepo(), nil, func() {}, nil
	}
}

func openPublisher(ctx context.Context, cfg config.Config, redisClient *redis.Client) (publisher.EventPublisher, func(), error) {
	switch cfg.Publisher {
	case config.PublisherNATS:
		pub, err := publisher.NewJetStreamPublisher(ctx, cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil

	case config.PublisherRabbitMQ:
		pub, err := publisher.NewRabbitPublisher(cfg.AMQPURL)
		if err != nil {
			return nil, nil, err
		}
		return pub, func() { _ = pub.Close() }, nil

	case config.PublisherRedis:
		closeClient := func() {}
		if redisClient == nil {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err := redisClient.Ping(ctx).Err(); err != nil {
				_ = redisClient.Close()
				return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
			}
			client := redisClient
			closeClient = func() { _ = client.Close() }
		}
		return publisher.NewRedisPublisher(redisClient), closeClient, nil

	default:
		return publisher.NewLogPublisher(), func() {}, nil
	}
}
