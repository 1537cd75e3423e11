package layout

import (
	"cmp"
	"slices"
)

// share is one fr claim on a pool of cells
type share struct {
	weight int // fr in thousandths
	min    int
	max    int // negative is unbounded
}

func (s share) clamp(v int) int {
	if s.max >= 0 {
		v = min(v, s.max)
	}
	return max(v, s.min)
}

// distribute splits pool between shares in proportion to their weights
// Shares pushed outside their limits are frozen at the limit and the remainder is
// redistributed among the rest; without limits the result sums to pool exactly
func distribute(pool int, shares []share) []int {
	out := make([]int, len(shares))
	frozen := make([]bool, len(shares))
	pool = max(pool, 0)

	for {
		var active []int
		remaining := pool
		for i, s := range shares {
			switch {
			case frozen[i]:
				remaining -= out[i]
			case s.weight <= 0:
				frozen[i] = true
				out[i] = s.clamp(0)
				remaining -= out[i]
			default:
				active = append(active, i)
			}
		}
		if len(active) == 0 {
			return out
		}

		weights := make([]int, len(active))
		for j, i := range active {
			weights[j] = shares[i].weight
		}
		alloc := largestRemainder(max(remaining, 0), weights)

		// Freeze the side whose violations dominate, as flexbox does
		violation := 0
		for j, i := range active {
			out[i] = alloc[j]
			violation += shares[i].clamp(alloc[j]) - alloc[j]
		}
		changed := false
		for _, i := range active {
			c := shares[i].clamp(out[i])
			if c == out[i] {
				continue
			}
			if violation > 0 && c < out[i] || violation < 0 && c > out[i] {
				continue
			}
			out[i] = c
			frozen[i] = true
			changed = true
		}
		if !changed {
			return out
		}
	}
}

// largestRemainder splits pool by integer weights
// Each share gets floor(pool*w/W); leftover cells go one each to the largest remainders,
// ties to the earlier share
func largestRemainder(pool int, weights []int) []int {
	out := make([]int, len(weights))
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 || pool <= 0 {
		return out
	}

	rem := make([]int64, len(weights))
	given := 0
	for i, w := range weights {
		p := int64(pool) * int64(w)
		out[i] = int(p / int64(total))
		rem[i] = p % int64(total)
		given += out[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(rem[b], rem[a]) })
	for k := 0; k < pool-given; k++ {
		out[order[k]]++
	}
	return out
}
