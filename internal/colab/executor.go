package colab

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/travel-agency/internal"
	"github.com/frahmantamala/travel-agency/internal/core/events"
	"github.com/frahmantamala/travel-agency/internal/metrics"
)

// EventPublisher is satisfied by *events.EventBus.
type EventPublisher = events.Publisher

type OpOutcome struct {
	Op    Op     `json:"op"`
	Error string `json:"error,omitempty"`
	err   error
}

func (o OpOutcome) Succeeded() bool {
	return o.err == nil
}

func (o OpOutcome) Err() error {
	return o.err
}

type BatchResult struct {
	BatchID   string      `json:"batch_id"`
	DossierID int64       `json:"dossier_id"`
	Outcomes  []OpOutcome `json:"outcomes"`
	Snapshot  *Snapshot   `json:"snapshot,omitempty"`
}

func (r *BatchResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			n++
		}
	}
	return n
}

// BatchFailure is attached as details to a COLAB_BATCH_FAILED error.
type BatchFailure struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

type Executor struct {
	writer       AssignmentWriter
	loader       SnapshotLoader
	publisher    EventPublisher
	logger       *slog.Logger
	writeTimeout time.Duration
}

type ExecutorOption func(*Executor)

func WithPublisher(p EventPublisher) ExecutorOption {
	return func(e *Executor) { e.publisher = p }
}

// WithWriteTimeout bounds each individual write. Zero keeps the default.
func WithWriteTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.writeTimeout = d }
}

func NewExecutor(writer AssignmentWriter, loader SnapshotLoader, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		writer: writer,
		loader: loader,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply issues every op concurrently, waits for all of them to settle and
// then reloads the dossier snapshot once. The batch succeeds only if every
// op succeeded; otherwise the returned error carries the message of the
// first failing op in op order. Applied ops are never rolled back. The
// result is returned even on failure so callers can show the outcomes and
// the reloaded snapshot.
func (e *Executor) Apply(ctx context.Context, dossierID int64, ops []Op) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{
		BatchID:   uuid.NewString(),
		DossierID: dossierID,
		Outcomes:  make([]OpOutcome, len(ops)),
	}

	var creates, replaces []int
	for i, op := range ops {
		if op.Kind == OpReplace {
			replaces = append(replaces, i)
		} else {
			creates = append(creates, i)
		}
	}

	e.logger.Info("applying colab batch",
		"batch_id", result.BatchID,
		"dossier_id", dossierID,
		"creates", len(creates),
		"replaces", len(replaces))

	var wg sync.WaitGroup
	for _, group := range [][]int{creates, replaces} {
		for _, i := range group {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result.Outcomes[i] = e.apply(ctx, dossierID, ops[i])
			}(i)
		}
	}
	wg.Wait()

	batchErr := e.aggregate(result)

	snapshot, reloadErr := e.loader.LoadSnapshot(ctx, dossierID)
	if reloadErr != nil {
		e.logger.Error("failed to reload dossier snapshot after colab batch",
			"batch_id", result.BatchID,
			"dossier_id", dossierID,
			"error", reloadErr)
		if batchErr == nil {
			batchErr = internal.NewExternalError("Assignments were saved but could not be reloaded", internal.ErrCodeSnapshotFailed, reloadErr)
		}
	} else {
		result.Snapshot = snapshot
	}

	outcome := "success"
	if batchErr != nil {
		outcome = "failure"
	}
	metrics.ColabBatchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if e.publisher != nil {
		event := events.NewColabsReconciledEvent(result.BatchID, dossierID, len(creates), len(replaces), result.Failed())
		if err := e.publisher.Publish(ctx, event); err != nil {
			e.logger.Warn("failed to publish colab batch event", "batch_id", result.BatchID, "error", err)
		}
	}

	if batchErr != nil {
		return result, batchErr
	}
	e.logger.Info("colab batch applied", "batch_id", result.BatchID, "dossier_id", dossierID, "ops", len(ops))
	return result, nil
}

func (e *Executor) apply(ctx context.Context, dossierID int64, op Op) OpOutcome {
	wctx, cancel := internal.WithTimeout(ctx, e.writeTimeout)
	defer cancel()

	var err error
	switch op.Kind {
	case OpReplace:
		err = e.writer.ReplaceAssignment(wctx, dossierID, op.ModuleID, op.NewUserID)
	default:
		err = e.writer.CreateAssignment(wctx, dossierID, op.ModuleID, op.NewUserID)
	}

	if err != nil {
		metrics.ColabOps.WithLabelValues(string(op.Kind), "error").Inc()
		e.logger.Warn("colab write failed", "dossier_id", dossierID, "op", op.String(), "error", err)
		return OpOutcome{Op: op, Error: errorMessage(err), err: err}
	}
	metrics.ColabOps.WithLabelValues(string(op.Kind), "ok").Inc()
	return OpOutcome{Op: op}
}

func (e *Executor) aggregate(result *BatchResult) error {
	failed := result.Failed()
	if failed == 0 {
		return nil
	}
	for _, o := range result.Outcomes {
		if o.Succeeded() {
			continue
		}
		e.logger.Error("colab batch failed",
			"batch_id", result.BatchID,
			"dossier_id", result.DossierID,
			"failed", failed,
			"total", len(result.Outcomes),
			"first_error", o.Error)
		return internal.NewExternalError(o.Error, internal.ErrCodeColabBatchFailed, o.err).
			WithDetails(BatchFailure{Total: len(result.Outcomes), Failed: failed})
	}
	return nil
}

func errorMessage(err error) string {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}
