package projection

import "math/rand"

// SelectLabels picks count labels from pool, keeping a previous selection
// stable where possible:
//
//   - previous already has count labels: reused verbatim
//   - previous is larger: truncated to its first count labels
//   - previous is smaller: the missing labels are drawn from the unused part
//     of pool with a seeded shuffle and appended
//   - previous is empty: the whole pool is shuffled and the first count taken
//
// Labels in previous that are not in pool are dropped before the rules apply.
// The result never holds more labels than pool.
func SelectLabels(pool, previous []string, count int, rng *rand.Rand) []string {
	if count <= 0 || len(pool) == 0 {
		return []string{}
	}

	inPool := make(map[string]struct{}, len(pool))
	for _, l := range pool {
		inPool[l] = struct{}{}
	}

	kept := make([]string, 0, len(previous))
	seen := make(map[string]struct{}, len(previous))
	for _, l := range previous {
		if _, ok := inPool[l]; !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		kept = append(kept, l)
	}

	switch {
	case len(kept) == count:
		return kept
	case len(kept) > count:
		return kept[:count]
	}

	unused := make([]string, 0, len(pool)-len(kept))
	for _, l := range pool {
		if _, ok := seen[l]; !ok {
			unused = append(unused, l)
		}
	}
	shuffle(unused, rng)

	need := count - len(kept)
	if need > len(unused) {
		need = len(unused)
	}
	return append(kept, unused[:need]...)
}
