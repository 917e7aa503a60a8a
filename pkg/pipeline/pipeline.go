// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/cleaner"
	"github.com/clinops/cohort-ingress/pkg/config"
	"github.com/clinops/cohort-ingress/pkg/converter"
	"github.com/clinops/cohort-ingress/pkg/model"
	"github.com/clinops/cohort-ingress/pkg/reconciler"
)

// Stage names, in execution order
const (
	StageNormalize = "normalize"
	StageDedupe    = "dedupe"
	StageVerify    = "verify"
	StageReconcile = "reconcile"
	StageConvert   = "convert"
)

// Result holds the output of a pipeline run: the final dataset plus every
// diagnostic the stages produced. Quality issues are collected here, never
// silently dropped.
type Result struct {
	Dataset      *model.Dataset
	Operations   []model.CleaningOperation
	Conflicts    []reconciler.ConflictWarning
	Verification *reconciler.VerificationReport
	Summary      *RunSummary
}

// Pipeline orchestrates the cleaning stages over an in-memory dataset:
// normalize -> dedupe -> verify -> reconcile -> convert. Every stage is a
// deterministic function from one dataset to a new one; structural errors
// abort the run, data-quality findings are collected and reported.
type Pipeline struct {
	cfg        *config.Config
	logger     *zap.Logger
	dataClean  *cleaner.DataCleaner
	ageConv    *converter.AgeConverter
	reconciler *reconciler.Reconciler
	verifier   *reconciler.Verifier
	metrics    *PipelineMetrics
}

// NewPipeline wires the pipeline stages from configuration
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	dataClean, err := cleaner.NewDataCleaner(logger, cfg.MissingTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create data cleaner: %w", err)
	}

	rec, err := reconciler.NewReconciler(logger, cfg.KeyColumn, cfg.WorkerPoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}

	var ageConv *converter.AgeConverter
	if cfg.AgeColumn != "" {
		ageConv = converter.NewAgeConverter(logger, cfg.AgeColumn, cfg.AgeDaysPerYear, cfg.AgeMaxYears)
	}

	pipelineLogger := logger.Named("pipeline")
	return &Pipeline{
		cfg:        cfg,
		logger:     pipelineLogger,
		dataClean:  dataClean,
		ageConv:    ageConv,
		reconciler: rec,
		verifier:   reconciler.NewVerifier(logger, cfg.KeyColumn),
		metrics:    NewPipelineMetrics(pipelineLogger),
	}, nil
}

// Metrics returns the pipeline metrics collector
func (p *Pipeline) Metrics() *PipelineMetrics {
	return p.metrics
}

// Run executes every stage over the loaded dataset and returns the result
func (p *Pipeline) Run(ctx context.Context, ds *model.Dataset) (*Result, error) {
	p.logger.Info("Starting pipeline run",
		zap.Int("rows", ds.Len()),
		zap.String("keyColumn", p.cfg.KeyColumn))

	result := &Result{
		Operations: make([]model.CleaningOperation, 0),
	}

	// Normalize missing-value tokens
	sm := p.metrics.StartStage(StageNormalize, ds.Len())
	normalized, ops := p.dataClean.NormalizeMissing(ds, p.cfg.KeyColumn)
	result.Operations = append(result.Operations, ops...)
	p.metrics.EndStage(sm, normalized.Len(), len(ops), 0)

	// Remove exact duplicate rows
	sm = p.metrics.StartStage(StageDedupe, normalized.Len())
	deduped, ops := p.dataClean.DropExactDuplicates(normalized, p.cfg.KeyColumn)
	result.Operations = append(result.Operations, ops...)
	p.metrics.EndStage(sm, deduped.Len(), len(ops), 0)

	// Verify the complementary-records assumption before coalescing
	sm = p.metrics.StartStage(StageVerify, deduped.Len())
	verification, err := p.verifier.VerifyDataset(deduped)
	if err != nil {
		return nil, fmt.Errorf("complementarity verification failed: %w", err)
	}
	result.Verification = verification
	p.metrics.EndStage(sm, deduped.Len(), 0, len(verification.ViolatingGroups))

	// Reconcile partial records into one record per key
	sm = p.metrics.StartStage(StageReconcile, deduped.Len())
	reconciled, err := p.reconciler.Reconcile(ctx, deduped)
	if err != nil {
		return nil, fmt.Errorf("reconciliation failed: %w", err)
	}
	result.Conflicts = p.reconciler.Conflicts().Warnings()
	p.metrics.EndStage(sm, reconciled.Len(), 0, len(result.Conflicts))

	final := reconciled

	// Convert day-count ages to years and clip outliers
	if p.ageConv != nil {
		sm = p.metrics.StartStage(StageConvert, reconciled.Len())
		converted, ops, err := p.ageConv.Convert(reconciled, p.cfg.KeyColumn)
		if err != nil {
			return nil, fmt.Errorf("age conversion failed: %w", err)
		}
		result.Operations = append(result.Operations, ops...)
		p.metrics.EndStage(sm, converted.Len(), len(ops), 0)
		final = converted
	}

	result.Dataset = final
	p.metrics.Complete()
	result.Summary = p.metrics.GenerateSummary()

	p.logger.Info("Pipeline run completed",
		zap.Int("rowsLoaded", result.Summary.RowsLoaded),
		zap.Int("rowsFinal", result.Summary.RowsFinal),
		zap.Int("operations", result.Summary.TotalOperations),
		zap.Int("conflicts", result.Summary.TotalConflicts),
		zap.Duration("duration", result.Summary.Duration))

	return result, nil
}
