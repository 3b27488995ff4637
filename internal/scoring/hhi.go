package scoring

import "strings"

// DominanceIndex computes the Herfindahl-Hirschman concentration index
// over the shop identities of a sampled result set. Shop names are
// compared case-insensitively after trimming; blank identities are
// excluded from the sample. The index ranges from near 0 (fully
// fragmented) to 1 (a single shop owns every sampled slot).
//
// The second return value is false when no shop identity is resolvable,
// in which case the index is absent rather than zero.
func DominanceIndex(shops []string) (float64, bool) {
	counts := make(map[string]int)
	total := 0
	for _, shop := range shops {
		key := strings.ToLower(strings.TrimSpace(shop))
		if key == "" {
			continue
		}
		counts[key]++
		total++
	}

	if total == 0 {
		return 0, false
	}

	hhi := 0.0
	for _, n := range counts {
		share := float64(n) / float64(total)
		hhi += share * share
	}
	return hhi, true
}
