// cmd/cohort-ingress/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clinops/cohort-ingress/pkg/config"
	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/pipeline"
	"github.com/clinops/cohort-ingress/pkg/report"
	"github.com/clinops/cohort-ingress/pkg/sink"
	"github.com/clinops/cohort-ingress/pkg/source"
)

var (
	targetTable  string
	reportColumn string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cohort-ingress",
		Short: "Ingest and reconcile a clinical cohort dataset",
		Long: `cohort-ingress downloads a tab-separated clinical cohort dataset from an
object store, normalizes missing-value tokens, removes duplicate rows,
reconciles partial records by grouping key, and reports the result.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full ingest and reconciliation pipeline",
		RunE:  runPipeline,
	}
	runCmd.Flags().StringVar(&targetTable, "target-table", "", "PostgreSQL table to write the reconciled dataset to")
	runCmd.Flags().StringVar(&reportColumn, "report-column", "", "Column to print a frequency table for after the run")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	valueConv := converter.NewValueConverter(logger)

	store, err := source.NewStore(cfg.Store, cfg.RetryAttempts, cfg.RetryDelay, logger)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}

	loader := source.NewLoader(store, valueConv, cfg.ColumnTypes, logger)
	dataset, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	pipe, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	result, err := pipe.Run(ctx, dataset)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	fmt.Println(pipe.Metrics().GenerateMetricsReport())
	fmt.Println(report.RenderMissingness(report.Missingness(result.Dataset)))

	if reportColumn != "" {
		counts := report.ValueCounts(result.Dataset, reportColumn)
		fmt.Println(report.RenderValueCounts(reportColumn, counts))
	}

	if cfg.Postgres != nil && targetTable != "" {
		pgSink, err := sink.NewPostgresSink(ctx, cfg.Postgres, valueConv, logger)
		if err != nil {
			return fmt.Errorf("failed to create PostgreSQL sink: %w", err)
		}
		defer pgSink.Close()

		if err := pgSink.WriteDataset(ctx, targetTable, result.Dataset); err != nil {
			return fmt.Errorf("failed to write reconciled dataset: %w", err)
		}
		if err := pgSink.RecordCleaningOperations(ctx, result.Operations); err != nil {
			return fmt.Errorf("failed to record cleaning operations: %w", err)
		}
	}

	return nil
}

// buildLogger constructs a zap logger from the configured level and format
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
