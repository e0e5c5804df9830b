// Package stats provides the small set of descriptive statistics the
// simulation aggregator needs, computed over decimal values.
package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Sorted returns an ascending copy of values, leaving the input untouched.
func Sorted(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	copy(out, values)
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

// Percentile computes the p-th percentile (p in [0,1]) using the
// conventional linear-interpolation definition: rank = p*(n-1), interpolate
// between the surrounding order statistics. Returns zero for empty input.
func Percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := Sorted(values)
	return percentileSorted(sorted, p)
}

// PercentileSorted is Percentile over an already ascending slice, so callers
// computing several percentiles can sort once.
func PercentileSorted(sorted []decimal.Decimal, p float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []decimal.Decimal, p float64) decimal.Decimal {
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := decimal.NewFromFloat(rank - float64(lo))
	return sorted[lo].Add(sorted[hi].Sub(sorted[lo]).Mul(frac))
}

// Mean returns the arithmetic mean, or zero for empty input.
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// StdDev returns the population standard deviation, or zero for empty input.
func StdDev(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	mean := Mean(values)
	varianceSum := decimal.Zero
	for _, v := range values {
		diff := v.Sub(mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	variance := varianceSum.Div(decimal.NewFromInt(int64(len(values))))
	f, _ := variance.Float64()
	return decimal.NewFromFloat(math.Sqrt(f))
}

// Min returns the smallest value, or zero for empty input.
func Min(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	min := values[0]
	for _, v := range values[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

// Max returns the largest value, or zero for empty input.
func Max(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	max := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return max
}
