package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the engine's OpenTelemetry tracer, grounded on the
// span-per-operation convention internal/telemetry establishes for agent
// execution; the Workflow Engine wraps every task attempt in a span the same
// way.
var tracer = otel.Tracer("github.com/trendy-design/deep.new/engine")

// startTaskSpan opens a span for one task attempt, tagging it with the task
// name and attempt number so a trace backend can group retries of the same
// task under one logical operation.
func startTaskSpan(ctx context.Context, task string, attempt int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "engine.executeTask",
		trace.WithAttributes(
			attribute.String("task.name", task),
			attribute.Int("task.attempt", attempt),
		),
	)
}
