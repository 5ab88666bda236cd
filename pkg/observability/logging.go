package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/plotline/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that emit one structured record per event.
// Decisions log at debug level; failed decisions at error level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "decision failed",
					"session_id", e.SessionID,
					"plan", e.Plan,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "decision",
				"session_id", e.SessionID,
				"plan", e.Plan,
				"action", e.Action,
				"reason", e.Reason,
				"duration", e.Duration,
			)
		},
		OnPlanActivated: func(ctx context.Context, e *domain.PlanEvent) {
			logger.InfoContext(ctx, "plan_activated", "session_id", e.SessionID, "plan", e.Plan)
		},
		OnPlanDeactivated: func(ctx context.Context, e *domain.PlanEvent) {
			logger.InfoContext(ctx, "plan_deactivated",
				"session_id", e.SessionID,
				"plan", e.Plan,
				"complete", e.Complete,
			)
		},
		OnActionExecuted: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action_executed", "session_id", e.SessionID, "action", e.Action)
		},
	}
}
