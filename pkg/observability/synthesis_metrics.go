package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSynthesisTotal     = "snipgen.synthesis.total"
	metricSynthesisDuration  = "snipgen.synthesis.duration.seconds"
	metricSynthesisCandidate = "snipgen.synthesis.candidates"
	metricSynthesisVerified  = "snipgen.synthesis.verified"

	attrGrammar = "grammar"
	attrOutcome = "outcome"

	outcomeVerified = "verified"
	outcomeEmpty    = "empty"
	outcomeFailed   = "failed"
)

var candidateBucketBoundaries = []float64{0, 1, 2, 3, 5, 8}

// SynthesisMetrics counts synthesis calls and their candidate yield.
type SynthesisMetrics struct {
	total      metric.Int64Counter
	duration   metric.Float64Histogram
	candidates metric.Int64Histogram
	verified   metric.Int64Histogram
}

// SynthesisStats describes one finished synthesis call.
type SynthesisStats struct {
	Grammar    string
	Candidates int
	Verified   int
	Duration   time.Duration
	Failed     bool
}

// NewSynthesisMetrics creates the instruments from mt.
func NewSynthesisMetrics(mt metric.Meter) (*SynthesisMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &SynthesisMetrics{
		total: b.counter(metricSynthesisTotal, "Synthesis calls by outcome", "{call}"),
		duration: b.histogram(metricSynthesisDuration, "Synthesis duration including verification", "s",
			durationBucketBoundaries...),
		candidates: b.intHistogram(metricSynthesisCandidate, "Candidates produced per call", "{snippet}",
			candidateBucketBoundaries...),
		verified: b.intHistogram(metricSynthesisVerified, "Candidates surviving verification per call", "{snippet}",
			candidateBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordSynthesis records one call. Safe to call on a nil receiver.
func (sm *SynthesisMetrics) RecordSynthesis(ctx context.Context, stats SynthesisStats) {
	if sm == nil {
		return
	}

	outcome := outcomeVerified

	switch {
	case stats.Failed:
		outcome = outcomeFailed
	case stats.Verified == 0:
		outcome = outcomeEmpty
	}

	grammar := attribute.String(attrGrammar, stats.Grammar)

	sm.total.Add(ctx, 1, metric.WithAttributes(grammar, attribute.String(attrOutcome, outcome)))
	sm.duration.Record(ctx, stats.Duration.Seconds(), metric.WithAttributes(grammar))

	if stats.Failed {
		return
	}

	sm.candidates.Record(ctx, int64(stats.Candidates), metric.WithAttributes(grammar))
	sm.verified.Record(ctx, int64(stats.Verified), metric.WithAttributes(grammar))
}
