package sentiment

// classifyScore classifies a higher-is-better metric (constructiveness,
// understanding) from a most-recent-first series of values.
//
// diff = avg(recent) - avg(previous). A diff above the improvement
// threshold is improving. Below that, a maintained good score is stable
// rather than declining on small negative noise; only then does any
// negative diff count as declining.
func classifyScore(series []float64, th Thresholds) Trend {
	recentAvg, prevAvg, ok := windowAverages(series)
	if !ok {
		return TrendStable
	}
	diff := recentAvg - prevAvg
	switch {
	case diff > th.Improvement:
		return TrendImproving
	case recentAvg >= th.GoodScoreFloor:
		return TrendStable
	case diff < 0:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// classifyVolatility classifies volatility, where lower is better, so the
// comparison is inverted: the diff must drop past the improvement
// threshold to be improving, and already-low volatility is stable even
// when it drifts up slightly.
func classifyVolatility(series []float64, th Thresholds) Trend {
	recentAvg, prevAvg, ok := windowAverages(series)
	if !ok {
		return TrendStable
	}
	diff := recentAvg - prevAvg
	switch {
	case diff < -th.Improvement:
		return TrendImproving
	case recentAvg <= th.LowVolatilityCeiling:
		return TrendStable
	case diff > 0:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// windowAverages splits the series with Window and averages each group.
// ok is false when the previous group is empty.
func windowAverages(series []float64) (recentAvg, prevAvg float64, ok bool) {
	recent, previous := Window(len(series))
	if len(previous) == 0 {
		return 0, 0, false
	}
	return avgAt(series, recent), avgAt(series, previous), true
}

func avgAt(series []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += series[i]
	}
	return sum / float64(len(idx))
}
