package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgethub/internal/amqp"
	"budgethub/internal/log"
	"budgethub/internal/services"
	"budgethub/internal/sheets"
)

// Syncer is the part of the sync service the worker drives.
type Syncer interface {
	Push(ctx context.Context, budgetID string) (services.PushResult, error)
	Pull(ctx context.Context, budgetID string) (services.PullResult, error)
	PullAndApply(ctx context.Context, budgetID string) (services.PullResult, error)
	LinkedBudgets(ctx context.Context) ([]string, error)
}

// SyncWorker executes sync requests received over AMQP.
type SyncWorker struct {
	sync        Syncer
	autoApply   bool
	concurrency int
	logger      *slog.Logger
}

// NewSyncWorker creates a worker. autoApply applies every pull, regardless
// of the flag carried by the message. concurrency bounds PushAll.
func NewSyncWorker(syncer Syncer, autoApply bool, concurrency int, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncWorker{
		sync:        syncer,
		autoApply:   autoApply,
		concurrency: concurrency,
		logger:      logger.With(log.FieldComponent, log.ComponentWorker),
	}
}

// HandleSyncMessage runs one request. Requests that can never succeed are
// logged and acknowledged so they are not redelivered forever.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	logger := w.logger.With(log.FieldBudgetID, msg.BudgetID, log.FieldDirection, msg.Direction)
	logger.InfoContext(ctx, "Processing sync request", "requested_at", msg.Timestamp)

	err := w.handle(ctx, msg, logger)
	if permanent(err) {
		logger.WarnContext(ctx, "Discarding sync request", log.FieldError, err)
		return nil
	}
	return err
}

func (w *SyncWorker) handle(ctx context.Context, msg *amqp.SyncRequestMessage, logger *slog.Logger) error {
	switch msg.Direction {
	case sheets.DirectionPush:
		r, err := w.sync.Push(ctx, msg.BudgetID)
		if err != nil {
			return fmt.Errorf("push: %w", err)
		}
		logger.InfoContext(ctx, "Push request completed", log.FieldRowCount, r.RowCount)
		return nil

	case sheets.DirectionPull:
		pull := w.sync.Pull
		applied := msg.AutoApply || w.autoApply
		if applied {
			pull = w.sync.PullAndApply
		}
		r, err := pull(ctx, msg.BudgetID)
		if err != nil {
			return fmt.Errorf("pull: %w", err)
		}
		logger.InfoContext(ctx, "Pull request completed",
			log.FieldStrategy, r.Strategy,
			log.FieldChangeCount, r.Summary.TotalChanges,
			"summary", r.Summary.Summary,
			"applied", applied && r.Summary.TotalChanges > 0)
		return nil

	default:
		return fmt.Errorf("%w: unknown direction %q", amqp.ErrInvalidMessage, msg.Direction)
	}
}

// PushAll pushes every linked budget. A failing budget does not stop the
// others; all failures are joined.
func (w *SyncWorker) PushAll(ctx context.Context) error {
	ids, err := w.sync.LinkedBudgets(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := w.sync.Push(gctx, id); err != nil {
				w.logger.WarnContext(gctx, "Push failed",
					log.NewFields().WithOperation(log.OpPush).WithBudget(id).WithError(err).ToSlice()...)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	w.logger.InfoContext(ctx, "Push round finished", "budgets", len(ids), "failed", len(errs))
	return errors.Join(errs...)
}

func permanent(err error) bool {
	return errors.Is(err, sheets.ErrBudgetNotFound) ||
		errors.Is(err, services.ErrNoSpreadsheet) ||
		errors.Is(err, amqp.ErrInvalidMessage)
}
