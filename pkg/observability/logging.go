package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/telelab/pkg/domain"
)

// LogHooks writes lifecycle events to logger. Polls are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			logger.InfoContext(ctx, "state_change",
				"workflow_id", e.WorkflowID,
				"from", e.From,
				"to", e.To,
			)
		},
		OnPoll: func(ctx context.Context, e *domain.PollEvent) {
			logger.DebugContext(ctx, "poll",
				"workflow_id", e.WorkflowID,
				"rows", e.Rows,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnNotify: func(ctx context.Context, e *domain.NotifyEvent) {
			logger.WarnContext(ctx, "notify",
				"workflow_id", e.WorkflowID,
				"operation", e.Operation,
				"message", e.Message,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.InfoContext(ctx, "submit",
				"workflow_id", e.WorkflowID,
				"experiment", e.ExperimentID,
				"rows", e.Rows,
				"err", e.Err,
			)
		},
	}
}
