package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

func main() {
	var batch int

	root := &cobra.Command{
		Use:          "event-relay",
		Short:        "Publish appointment events from the outbox to Redis",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd.Context(), batch)
		},
	}
	root.Flags().IntVar(&batch, "batch", 100, "events published per run")

	root.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print appointment events as they are published",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTail(cmd.Context(), cmd)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runRelay(ctx context.Context, batch int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("service", "event-relay").Logger()
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.RelayInterval).
		Str("channel", cfg.EventsChannel).
		Msg("event relay starting up")

	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConn)
	cancelPg()
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(ctx, redisOptions(cfg))
	if err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	clinicSvc := clinic.NewService(clinic.NewPgRepository(pgPool), log)
	repo := appointment.NewPgRepository(pgPool)
	slots := availability.NewService(clinicSvc, appointment.NewBookingSource(repo), cfg.SlotGranularity, log)
	svc := appointment.NewService(repo, slots, therapy.NewService(therapy.NewPgRepository(pgPool), log),
		redisclient.NewRedisLocker(rdb, cfg.LockTTL), cfg, log)
	pub := redisclient.NewPublisher(rdb, cfg.EventsChannel)

	relayOnce(ctx, svc, pub, batch, log)

	ticker := time.NewTicker(cfg.RelayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received, stopping event relay")
			return nil
		case <-ticker.C:
			relayOnce(ctx, svc, pub, batch, log)
		}
	}
}

// relayOnce keeps draining while full batches come back.
func relayOnce(ctx context.Context, svc *appointment.Service, pub appointment.Publisher, batch int, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	total := 0
	for {
		n, err := svc.RelayEvents(runCtx, pub, batch)
		total += n
		if err != nil {
			log.Error().Err(err).Int("published", total).Msg("relay run error")
			return
		}
		if n < batch {
			break
		}
	}

	if total > 0 {
		log.Info().Int("published", total).Dur("took", time.Since(start)).Msg("relay run complete")
	}
}

func runTail(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}

	rdb, err := redisclient.NewRedisClient(ctx, redisOptions(cfg))
	if err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer rdb.Close()

	pub := redisclient.NewPublisher(rdb, cfg.EventsChannel)
	err = pub.Subscribe(ctx, func(payload string) {
		fmt.Fprintln(cmd.OutOrStdout(), payload)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func redisOptions(cfg config.Config) redisclient.ClientOptions {
	return redisclient.ClientOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
	}
}
