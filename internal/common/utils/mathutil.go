package utils

// ClampInt clamps v into the inclusive [min, max] range, swapping the
// bounds when min > max.
func ClampInt(v, min, max int) int {
	if min > max {
		min, max = max, min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// MinInt returns the smallest of vals, or 0 when vals is empty.
func MinInt(vals ...int) int {
	if len(vals) == 0 {
		return 0
	}
	min := vals[0]
	for i := 1; i < len(vals); i++ {
		if vals[i] < min {
			min = vals[i]
		}
	}
	return min
}
