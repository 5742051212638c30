// Package main provides the entry point for the data ingestion service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/aurum/internal/backtest"
	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/datasource"
	"github.com/yourusername/aurum/internal/health"
	"github.com/yourusername/aurum/internal/logger"
	"github.com/yourusername/aurum/internal/metrics"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/repository"
	"github.com/yourusername/aurum/internal/scheduler"
	"github.com/yourusername/aurum/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Stored data older than this fails readiness; covers a weekend plus one missed sync
const maxStaleness = 96 * time.Hour

var (
	configFile string
	log        *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(syncCmd, serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "data-ingestion",
	Short: "Fetch and store daily XAU/USD bars",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(cmd.Context(), configFile); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
		logger.NewAuditLogger(log).LogConfigurationLoaded(cfg.App.Environment, cfg.MarketData.Symbol, cfg.Backtest.Window, strategyNames(cfg))
		return nil
	},
	SilenceUsage: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync against the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ingestion, _, _, err := buildServices(db)
		if err != nil {
			return err
		}

		stats, err := ingestion.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Println(stats.String())
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled syncs with health and metrics endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ingestion, reporter, repos, err := buildServices(db)
		if err != nil {
			return err
		}

		sched := scheduler.NewScheduler(log)
		if err := sched.ScheduleDailySync(cfg.Schedule.DailySync, ingestion); err != nil {
			return err
		}
		if cfg.Schedule.DailyReport != "" {
			opts := service.BacktestOptions{
				WalkForward:       cfg.Backtest.WalkForward.TrainDays > 0,
				MonteCarlo:        cfg.Backtest.MonteCarloIterations > 0,
				PersistIndicators: cfg.Backtest.PersistIndicators,
				PersistResults:    cfg.Backtest.PersistResults,
			}
			if err := sched.ScheduleDailyReport(cfg.Schedule.DailyReport, reporter, opts); err != nil {
				return err
			}
		}

		symbol := service.NewDataNormalizer(log).NormalizeSymbol(cfg.MarketData.Symbol)
		healthServer := health.NewServer(health.Config{
			ServiceName: "data-ingestion",
			Version:     Version + "+" + GitCommit,
			Port:        strconv.Itoa(cfg.Metrics.HealthPort),
			Logger:      log,
			DB:          db,
			LatestBar: func(ctx context.Context) (time.Time, error) {
				return repos.Price.GetLatestDate(ctx, symbol)
			},
			MaxStaleness: maxStaleness,
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			metricsServer := startMetricsServer(cfg.Metrics)
			defer metricsServer.Close()
		}

		if err := sched.Start(); err != nil {
			return err
		}
		healthServer.SetReady(true)

		<-ctx.Done()
		log.Info("Shutting down data ingestion service")
		healthServer.SetReady(false)
		return sched.Stop()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	c, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.LoadSecretsFromAWS(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func buildServices(db *database.DB) (*service.IngestionService, *service.BacktestService, *repository.Repositories, error) {
	repos, err := repository.NewRepositories(db)
	if err != nil {
		return nil, nil, nil, err
	}

	httpClient := datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfigFrom(&cfg.MarketData), log)
	source, err := datasource.NewFactory(&cfg.MarketData, log).NewPriceSource(httpClient)
	if err != nil {
		return nil, nil, nil, err
	}

	ingestCfg := service.IngestionConfig{Symbol: cfg.MarketData.Symbol}
	if cfg.MarketData.HistoryStart != "" {
		if ingestCfg.HistoryStart, err = time.Parse(models.DateLayout, cfg.MarketData.HistoryStart); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid history start: %w", err)
		}
	}

	normalizer := service.NewDataNormalizer(log)
	ingestion, err := service.NewIngestionService(source, repos.Price, service.NewDataValidator(log), normalizer, log, ingestCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	pipelineCfg, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return nil, nil, nil, err
	}
	pipeline, err := backtest.NewPipeline(pipelineCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	reporter, err := service.NewBacktestService(repos.Price, repos.Indicator, repos.BacktestResult, pipeline,
		normalizer.NormalizeSymbol(cfg.MarketData.Symbol), log)
	if err != nil {
		return nil, nil, nil, err
	}

	return ingestion, reporter, repos, nil
}

func startMetricsServer(mc config.MetricsConfig) *http.Server {
	path := mc.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(mc.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", mc.Port).Info("Metrics server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server error")
		}
	}()
	return server
}

func strategyNames(c *config.Config) []string {
	names := make([]string, 0, len(c.Backtest.Strategies))
	for _, s := range c.Backtest.Strategies {
		names = append(names, s.Name)
	}
	return names
}
