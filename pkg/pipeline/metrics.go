// pkg/pipeline/metrics.go
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics tracks metrics for one pipeline stage
type StageMetrics struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	RowsIn     int
	RowsOut    int
	Operations int // Cleaning operations recorded by the stage
	Conflicts  int // Conflict warnings recorded by the stage
}

// Duration returns the stage duration
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// RowsDropped returns how many rows the stage removed
func (sm *StageMetrics) RowsDropped() int {
	return sm.RowsIn - sm.RowsOut
}

// PipelineMetrics tracks metrics for a pipeline run
type PipelineMetrics struct {
	mu        sync.Mutex
	logger    *zap.Logger
	StartTime time.Time
	EndTime   time.Time
	Stages    []*StageMetrics
}

// NewPipelineMetrics creates a new metrics collector
func NewPipelineMetrics(logger *zap.Logger) *PipelineMetrics {
	return &PipelineMetrics{
		StartTime: time.Now(),
		Stages:    make([]*StageMetrics, 0),
		logger:    logger,
	}
}

// StartStage begins tracking a stage
func (pm *PipelineMetrics) StartStage(name string, rowsIn int) *StageMetrics {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	sm := &StageMetrics{
		Name:      name,
		StartTime: time.Now(),
		RowsIn:    rowsIn,
	}
	pm.Stages = append(pm.Stages, sm)

	if pm.logger != nil {
		pm.logger.Info("Started pipeline stage",
			zap.String("stage", name),
			zap.Int("rowsIn", rowsIn))
	}

	return sm
}

// EndStage completes tracking a stage
func (pm *PipelineMetrics) EndStage(sm *StageMetrics, rowsOut, operations, conflicts int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	sm.EndTime = time.Now()
	sm.RowsOut = rowsOut
	sm.Operations = operations
	sm.Conflicts = conflicts

	if pm.logger != nil {
		pm.logger.Info("Completed pipeline stage",
			zap.String("stage", sm.Name),
			zap.Int("rowsOut", rowsOut),
			zap.Int("operations", operations),
			zap.Int("conflicts", conflicts),
			zap.Duration("duration", sm.Duration()))
	}
}

// Complete marks the pipeline run as finished
func (pm *PipelineMetrics) Complete() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.EndTime = time.Now()
}

// Duration returns the total run duration
func (pm *PipelineMetrics) Duration() time.Duration {
	if pm.EndTime.IsZero() {
		return time.Since(pm.StartTime)
	}
	return pm.EndTime.Sub(pm.StartTime)
}

// RunSummary represents the final pipeline summary
type RunSummary struct {
	RowsLoaded       int
	RowsFinal        int
	TotalOperations  int
	TotalConflicts   int
	GroupsReconciled int
	Duration         time.Duration
	StartTime        time.Time
	EndTime          time.Time
}

// GenerateSummary builds a run summary from the collected stage metrics
func (pm *PipelineMetrics) GenerateSummary() *RunSummary {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	summary := &RunSummary{
		StartTime: pm.StartTime,
		EndTime:   pm.EndTime,
		Duration:  pm.EndTime.Sub(pm.StartTime),
	}

	for i, sm := range pm.Stages {
		if i == 0 {
			summary.RowsLoaded = sm.RowsIn
		}
		summary.RowsFinal = sm.RowsOut
		summary.TotalOperations += sm.Operations
		summary.TotalConflicts += sm.Conflicts
		if sm.Name == StageReconcile {
			summary.GroupsReconciled = sm.RowsOut
		}
	}

	return summary
}

// GenerateMetricsReport creates a detailed metrics report
func (pm *PipelineMetrics) GenerateMetricsReport() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	report := fmt.Sprintf(`
Pipeline Metrics Report
=======================
Duration:    %s
Start Time:  %s
End Time:    %s

Stage Details
-------------
`,
		pm.Duration().Round(time.Millisecond),
		pm.StartTime.Format(time.RFC3339),
		pm.EndTime.Format(time.RFC3339),
	)

	for _, sm := range pm.Stages {
		report += fmt.Sprintf("- %-12s %6d -> %6d rows, %d operations, %d conflicts, %s\n",
			sm.Name,
			sm.RowsIn,
			sm.RowsOut,
			sm.Operations,
			sm.Conflicts,
			sm.Duration().Round(time.Millisecond))
	}

	return report
}
