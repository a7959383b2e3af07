package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pyqs-go/pyqs/internal/api"
	"github.com/pyqs-go/pyqs/internal/config"
	"github.com/pyqs-go/pyqs/internal/events"
	"github.com/pyqs-go/pyqs/internal/examples/tasks"
	"github.com/pyqs-go/pyqs/internal/logger"
	"github.com/pyqs-go/pyqs/internal/queue"
	"github.com/pyqs-go/pyqs/internal/task"
	"github.com/pyqs-go/pyqs/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, os.Getenv("ENV") != "production")
	log := logger.Get()
	log.Info().Msg("starting pyqs worker")

	queueName := "tasks"
	if len(cfg.Reader.QueueNames) > 0 {
		queueName = cfg.Reader.QueueNames[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Each ReadWorker gets its own SQS client: remoteFactory is called
	// once per spawn and again on every respawn, so no client is ever
	// shared across readers or across a crash/respawn of the same slot.
	remoteFactory := func(ctx context.Context) (queue.RemoteQueue, error) {
		return queue.NewSQSQueue(ctx, cfg.SQS.Region, queueName, cfg.SQS.EndpointOverride, cfg.SQS.DefaultVisibilityTimeout)
	}

	if _, err := remoteFactory(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create SQS queue")
	}

	resolver := task.NewResolver()
	sink := tasks.NewResultSink()
	resolver.Register("tests.tasks.index_incrementer", tasks.IndexIncrementer(sink))

	internal := queue.New(cfg.EffectiveCapacity())

	var registryClient *redis.Client
	var publisher events.Publisher
	var poison *queue.PoisonLog
	if cfg.Registry.Addr != "" {
		registryClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Registry.Addr,
			Password: cfg.Registry.Password,
			DB:       cfg.Registry.DB,
		})
		defer registryClient.Close()

		if err := registryClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("registry redis unreachable, continuing with registry disabled")
			registryClient = nil
		}
	}
	poison = queue.NewPoisonLog(registryClient)
	if registryClient != nil {
		publisher = events.NewRedisPubSub(registryClient)
	}

	managerCfg := worker.ManagerConfig{
		BatchSize:         cfg.Reader.BatchSize,
		ShortPollInterval: cfg.Processor.ShortPollInterval,
		QueueLabel:        queueName,
		RegistryClient:    registryClient,
		HeartbeatInterval: cfg.Registry.HeartbeatInterval,
		HeartbeatTimeout:  cfg.Registry.HeartbeatTimeout,
		Publisher:         publisher,
	}

	manager := worker.NewManager(internal, remoteFactory, poison, resolver, managerCfg, *log)
	manager.Start(ctx, cfg.Reader.Count, cfg.Processor.Count)

	var adminServer *api.Server
	var httpServer *http.Server
	if cfg.Admin.Enabled {
		adminServer = api.NewServer(cfg, registryClient, internal, poison, publisher)
		adminServer.Start(ctx)

		httpServer = &http.Server{
			Addr:    cfg.Admin.Addr,
			Handler: adminServer,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("admin server failed")
			}
		}()
		log.Info().Str("addr", cfg.Admin.Addr).Msg("admin API listening")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")

	manager.Shutdown(shutdownTimeout)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("admin server shutdown error")
		}
		adminServer.Stop()
	}

	log.Info().Msg("worker stopped")
}
