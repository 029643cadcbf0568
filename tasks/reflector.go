package tasks

import (
	"context"

	"github.com/trendy-design/deep.new/engine"
)

// ReflectorConfig configures a reflector task.
type ReflectorConfig struct {
	// ScoreThreshold is the minimum Analysis.Score the reflector accepts
	// without requesting another revision pass.
	ScoreThreshold int
	// MaxRevisions caps how many times the reflector will redirect back to
	// ReviseTo before giving up and accepting the current draft, preventing
	// the unbounded "loop forever on a stubborn analysis" failure mode.
	MaxRevisions int
	// ReviseTo names the task to redirect to for another pass (typically
	// refine-query or writer); AcceptTo names the task to continue to once
	// the draft is accepted (typically suggestions).
	ReviseTo string
	AcceptTo string
}

// ReflectorTask reads the analyzer's Analysis from KeyAnalysis and
// imperatively redirects the workflow: back to ReviseTo if the score is
// below threshold and the revision budget remains, otherwise on to AcceptTo.
// Re-entering ReviseTo needs no completion reset — the engine's re-entrancy
// guard only blocks a task currently in flight, not one already completed —
// so the redirect alone is enough to drive the revision loop, per the
// engine's RouteResult.Next imperative-redirect priority (SPEC_FULL §9).
func ReflectorTask(cfg ReflectorConfig) engine.HandlerFunc {
	return func(ctx context.Context, p engine.ParamBundle) (any, error) {
		analysis, _ := engine.Get[Analysis](p.Ctx, KeyAnalysis)
		revisions, _ := engine.Get[int](p.Ctx, KeyRevisionCount)

		if analysis.Score < cfg.ScoreThreshold && revisions < cfg.MaxRevisions && cfg.ReviseTo != "" {
			engine.Set(p.Ctx, KeyRevisionCount, revisions+1)
			return engine.RouteResult{
				Result: analysis,
				Next:   &engine.RoutingDestination{Single: cfg.ReviseTo},
			}, nil
		}

		if cfg.AcceptTo != "" {
			return engine.RouteResult{
				Result: analysis,
				Next:   &engine.RoutingDestination{Single: cfg.AcceptTo},
			}, nil
		}

		return analysis, nil
	}
}
