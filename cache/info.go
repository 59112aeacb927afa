package cache

// Info is a point-in-time snapshot of cache statistics.
type Info struct {
	Hits      uint64
	Misses    uint64
	MaxSize   int  // configured capacity; meaningless when Unbounded
	Unbounded bool // no capacity bound
	CurrSize  int
}

// HitRate returns Hits/(Hits+Misses), or 0 before the first lookup.
func (i Info) HitRate() float64 {
	total := i.Hits + i.Misses
	if total == 0 {
		return 0
	}
	return float64(i.Hits) / float64(total)
}
