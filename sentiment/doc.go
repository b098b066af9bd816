// Package sentiment computes relationship-health metrics for a completed
// conversation and classifies each tracked metric as improving, stable, or
// declining relative to prior results for the same partnership.
//
// The language understanding itself is delegated to an external analysis
// backend behind the Backend interface; this package owns eligibility
// screening, score aggregation, the history-dependent trend window, and
// result persistence.
package sentiment
