package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quantegy/tradepulse/internal/application"
	"github.com/quantegy/tradepulse/internal/cache"
	"github.com/quantegy/tradepulse/internal/config"
	httpapi "github.com/quantegy/tradepulse/internal/interfaces/http"
	"github.com/quantegy/tradepulse/internal/metrics"
	"github.com/quantegy/tradepulse/internal/persistence/postgres"
	"github.com/quantegy/tradepulse/internal/provider"
	"github.com/quantegy/tradepulse/internal/provider/feed"
)

func Execute(ctx context.Context) error {
	var configPath string

	root := &cobra.Command{Use: "tradepulse", Short: "regime-adaptive trading decision engine"}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")
	root.AddCommand(runCmd(ctx, &configPath))
	root.AddCommand(classifyCmd(ctx, &configPath))
	return root.ExecuteContext(ctx)
}

// runCmd starts the full daemon: feed, decision loop, HTTP surface.
func runCmd(ctx context.Context, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the decision loop and HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			marketFeed := feed.New(feed.Config{
				URL:            cfg.Feed.WebSocketURL,
				ReconnectDelay: cfg.Feed.ReconnectDelay,
				PingInterval:   cfg.Feed.PingInterval,
			})
			source := provider.Guard("feed", provider.NewLiveSource(
				marketFeed, provider.DefaultFeatureConfig(), nil), cfg.Feed.RateLimitRPS)

			opts := []application.Option{}
			deps := httpapi.Deps{Registry: registry, Symbol: cfg.Symbol, Timeframe: cfg.Timeframe}

			if cfg.Postgres.Enabled {
				db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Postgres.DSN)
				if err != nil {
					return fmt.Errorf("connect postgres: %w", err)
				}
				defer db.Close()
				repo := postgres.NewClassificationRepo(db, 5*time.Second)
				decisions := postgres.NewDecisionRepo(db, 5*time.Second)
				opts = append(opts, application.WithPersistence(repo, decisions))
				deps.Repo = repo
			}
			if cfg.Redis.Enabled {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				classCache := cache.New(client, cfg.Redis.TTL)
				opts = append(opts, application.WithCache(classCache))
				deps.Cache = classCache
			}

			engine := application.NewEngine(cfg, source, m, opts...)
			deps.Cycle = engine
			deps.Risk = engine.Risk()

			server := httpapi.NewServer(httpapi.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, deps)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return marketFeed.Run(gctx, []string{cfg.Symbol}, cfg.Timeframe)
			})
			g.Go(func() error { return engine.Run(gctx) })
			g.Go(func() error { return server.Run(gctx) })

			log.Info().Str("symbol", cfg.Symbol).Msg("tradepulse running")
			err = g.Wait()
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

// classifyCmd runs a single cycle and prints the result as JSON.
func classifyCmd(ctx context.Context, configPath *string) *cobra.Command {
	var warmup time.Duration

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "run one decision cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			marketFeed := feed.New(feed.Config{
				URL:            cfg.Feed.WebSocketURL,
				ReconnectDelay: cfg.Feed.ReconnectDelay,
				PingInterval:   cfg.Feed.PingInterval,
			})
			feedCtx, stopFeed := context.WithCancel(ctx)
			defer stopFeed()
			go marketFeed.Run(feedCtx, []string{cfg.Symbol}, cfg.Timeframe)

			log.Info().Dur("warmup", warmup).Msg("collecting candles")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(warmup):
			}

			source := provider.NewLiveSource(marketFeed, provider.DefaultFeatureConfig(), nil)
			engine := application.NewEngine(cfg, source, m)

			result, err := engine.RunOnce(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().DurationVar(&warmup, "warmup", 2*time.Minute, "how long to collect candles before classifying")
	return cmd
}
