// pkg/reconciler/worker.go
package reconciler

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinops/cohort-ingress/pkg/model"
)

// groupJob is one reconciliation unit: a single key group. Groups are
// independent, so jobs can run on any worker; Index preserves the group's
// first-seen position for reassembly.
type groupJob struct {
	ID    string
	Index int
	Group Group
}

// groupResult carries a reconciled record back from a worker
type groupResult struct {
	JobID     string
	Index     int
	Record    model.Record
	Conflicts []ConflictWarning
	Err       error
}

// worker pulls group jobs from a queue and reconciles them
type worker struct {
	id        int
	schema    model.Schema
	keyColumn string
	logger    *zap.Logger
}

// start processes jobs until the queue is closed or the context is cancelled
func (w *worker) start(ctx context.Context, jobs <-chan groupJob, results chan<- groupResult) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			record, warnings := reconcileGroup(job.Group, w.schema, w.keyColumn)
			w.logger.Debug("Reconciled group",
				zap.String("jobID", job.ID),
				zap.String("key", job.Group.KeyText),
				zap.Int("groupSize", job.Group.Size()),
				zap.Int("conflicts", len(warnings)))

			select {
			case results <- groupResult{JobID: job.ID, Index: job.Index, Record: record, Conflicts: warnings}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// reconcileParallel partitions key groups across a worker pool. Within-group
// order is preserved inside each job; results are reassembled in group
// first-seen order, so the output is identical to the serial path.
func (r *Reconciler) reconcileParallel(ctx context.Context, groups []Group, schema model.Schema) ([]model.Record, error) {
	workerCount := r.workerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount > len(groups) {
		workerCount = len(groups)
	}

	jobs := make(chan groupJob, workerCount*2)
	results := make(chan groupResult, workerCount*2)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := &worker{
				id:        id,
				schema:    schema,
				keyColumn: r.keyColumn,
				logger:    r.logger.With(zap.Int("workerID", id)),
			}
			w.start(ctx, jobs, results)
		}(i)
	}

	// Submit all group jobs, then close the queue
	go func() {
		defer close(jobs)
		for i, group := range groups {
			job := groupJob{ID: uuid.New().String(), Index: i, Group: group}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	reconciled := make([]model.Record, len(groups))
	received := 0
	for result := range results {
		if result.Err != nil {
			return nil, result.Err
		}
		reconciled[result.Index] = result.Record
		r.conflicts.RecordAll(result.Conflicts)
		received++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if received != len(groups) {
		return nil, fmt.Errorf("reconciled %d of %d groups", received, len(groups))
	}

	return reconciled, nil
}
