// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/aurum/internal/backtest"
	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/logger"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/repository"
	"github.com/yourusername/aurum/internal/service"
	"github.com/yourusername/aurum/internal/strategy"
)

// Backtest modes
const (
	modeHistorical  = "historical"
	modeWalkForward = "walk-forward"
	modeMonteCarlo  = "monte-carlo"
	modeAll         = "all"
)

var (
	configPath   string
	strategyName string
	startDate    string
	endDate      string
	mode         string
	outputDir    string
	noPersist    bool
)

var rootCmd = &cobra.Command{
	Use:          "backtest",
	Short:        "Evaluate configured strategies over the stored XAU/USD series",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to config file")
	flags.StringVar(&strategyName, "strategy", "", "Only run the named strategy")
	flags.StringVar(&startDate, "start-date", "", "Override start date (YYYY-MM-DD)")
	flags.StringVar(&endDate, "end-date", "", "Override end date (YYYY-MM-DD)")
	flags.StringVar(&mode, "mode", modeHistorical, "Backtest mode: historical, walk-forward, monte-carlo, all")
	flags.StringVar(&outputDir, "output", "", "Output directory for reports (defaults to backtest.output_path)")
	flags.BoolVar(&noPersist, "no-persist", false, "Do not write indicators or results to the database")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	opts, err := optionsForMode(mode)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)

	pipelineCfg, err := buildPipelineConfig(cfg)
	if err != nil {
		return err
	}
	pipeline, err := backtest.NewPipeline(pipelineCfg)
	if err != nil {
		return err
	}

	if !noPersist {
		opts.PersistIndicators = cfg.Backtest.PersistIndicators
		opts.PersistResults = cfg.Backtest.PersistResults
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	symbol := service.NewDataNormalizer(log).NormalizeSymbol(cfg.MarketData.Symbol)
	svc, err := service.NewBacktestService(repos.Price, repos.Indicator, repos.BacktestResult, pipeline, symbol, log)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"mode": mode, "symbol": symbol, "strategies": len(pipelineCfg.Strategies)}).Info("Starting backtest")

	report, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}
	if report.Result.InsufficientHistory {
		fmt.Printf("Insufficient history: %d bars stored for %s, window %d needs at least %d\n",
			report.Bars, symbol, pipelineCfg.Window, pipelineCfg.Window+1)
		return nil
	}

	fmt.Print(backtest.GenerateConsoleReport(report.Ranked))

	dir := outputDir
	if dir == "" {
		dir = pipelineCfg.OutputPath
	}
	if dir == "" {
		return nil
	}
	if err := writeReports(dir, report, pipelineCfg.Window); err != nil {
		return err
	}
	log.WithField("output", dir).Info("Reports written")
	return nil
}

func optionsForMode(m string) (service.BacktestOptions, error) {
	switch m {
	case modeHistorical:
		return service.BacktestOptions{}, nil
	case modeWalkForward:
		return service.BacktestOptions{WalkForward: true}, nil
	case modeMonteCarlo:
		return service.BacktestOptions{MonteCarlo: true}, nil
	case modeAll:
		return service.BacktestOptions{WalkForward: true, MonteCarlo: true}, nil
	default:
		return service.BacktestOptions{}, fmt.Errorf("unsupported mode: %s", m)
	}
}

func buildPipelineConfig(cfg *config.Config) (backtest.PipelineConfig, error) {
	pc, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return backtest.PipelineConfig{}, err
	}
	if startDate != "" {
		if pc.StartDate, err = time.Parse(models.DateLayout, startDate); err != nil {
			return backtest.PipelineConfig{}, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if endDate != "" {
		if pc.EndDate, err = time.Parse(models.DateLayout, endDate); err != nil {
			return backtest.PipelineConfig{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if strategyName != "" {
		var selected []strategy.Config
		for _, s := range pc.Strategies {
			if s.Name == strategyName {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			return backtest.PipelineConfig{}, fmt.Errorf("%w: strategy %q is not configured", models.ErrInvalidConfig, strategyName)
		}
		pc.Strategies = selected
	}
	return pc, pc.Validate()
}

func writeReports(dir string, report *service.BacktestReport, window int) error {
	if err := backtest.GenerateCSVExport(report.Ranked, filepath.Join(dir, "summary.csv")); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}
	if err := backtest.GenerateHTMLReport(report.Ranked, filepath.Join(dir, "report.html")); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	for _, agg := range report.Ranked {
		run := report.Result.Runs[agg.Strategy]
		export := backtest.NewExport(run, agg, report.Symbol, window)
		if err := backtest.ExportToJSON(export, filepath.Join(dir, agg.Strategy+".json")); err != nil {
			return fmt.Errorf("failed to export %s: %w", agg.Strategy, err)
		}
		if err := backtest.WriteEquityCurveCSV(run, filepath.Join(dir, agg.Strategy+"_curve.csv")); err != nil {
			return fmt.Errorf("failed to write curve for %s: %w", agg.Strategy, err)
		}
	}
	return nil
}
