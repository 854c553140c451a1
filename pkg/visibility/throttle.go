package visibility

// ShouldRun reports whether a throttled update runs on this tick: every
// every-th tick, or whenever force is set. An interval of 0 or 1 runs on
// every tick.
func ShouldRun(tick, every uint64, force bool) bool {
	if force || every <= 1 {
		return true
	}
	return tick%every == 0
}
