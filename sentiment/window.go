package sentiment

// Window returns the comparison groups for trend classification as index
// slices into a most-recent-first series of length total (the current
// result at index 0, priors after it).
//
// The group sizes depend on how much history exists:
//
//	total 1:   recent = the single result, previous empty
//	total 2:   most recent 1 vs next 1
//	total 3:   most recent 1 vs next 2
//	total 4-9: first half (floor(total/2)) vs the remainder
//	total 10+: most recent 5 vs ranks 6-10; older results are ignored
//
// An empty previous group means there is nothing to compare against and
// every metric classifies as stable.
func Window(total int) (recent, previous []int) {
	switch {
	case total <= 0:
		return nil, nil
	case total == 1:
		return indices(0, 1), nil
	case total == 2:
		return indices(0, 1), indices(1, 2)
	case total == 3:
		return indices(0, 1), indices(1, 3)
	case total < 10:
		half := total / 2
		return indices(0, half), indices(half, total)
	default:
		return indices(0, 5), indices(5, 10)
	}
}

func indices(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
