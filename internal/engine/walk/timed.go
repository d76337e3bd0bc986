package walk

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reggie/internal/shared/observability"
)

// Stats describes one timed traversal.
type Stats struct {
	Strategy Strategy
	Root     string
	Count    int
	Elapsed  time.Duration
}

// Throughput returns nodes per second. It reports false when the elapsed
// time is zero and no rate can be derived.
func (s Stats) Throughput() (float64, bool) {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0, false
	}
	return float64(s.Count) / secs, true
}

// Timed runs e against rootID between two monotonic clock reads. ctx only
// carries the tracing span; the traversal itself is not cancellable.
func Timed(ctx context.Context, e Engine, rootID string) (ResultSet, Stats, error) {
	return timed(ctx, time.Now, e, rootID)
}

func timed(ctx context.Context, now func() time.Time, e Engine, rootID string) (ResultSet, Stats, error) {
	strategy := e.Strategy()
	_, span := observability.Tracer.Start(ctx, "walk.Traverse", trace.WithAttributes(
		attribute.String("walk.strategy", string(strategy)),
		attribute.String("walk.root", rootID),
	))
	defer span.End()

	start := now()
	result, err := e.Traverse(rootID)
	stats := Stats{Strategy: strategy, Root: rootID, Count: result.Len(), Elapsed: now().Sub(start)}

	label := string(strategy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.TraversalsTotal.WithLabelValues(label, "error").Inc()
		return nil, stats, err
	}

	span.SetAttributes(attribute.Int("walk.count", stats.Count))
	observability.TraversalsTotal.WithLabelValues(label, "ok").Inc()
	observability.TraversalDuration.WithLabelValues(label).Observe(stats.Elapsed.Seconds())
	observability.NodesDiscovered.WithLabelValues(label).Add(float64(stats.Count))
	if tput, ok := stats.Throughput(); ok {
		observability.Throughput.WithLabelValues(label).Set(tput)
	}
	return result, stats, nil
}
