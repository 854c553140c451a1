package visibility

// bitSet is a dense set of arena indices.
type bitSet struct {
	buckets []uint64
}

func newBitSet(capacity int) *bitSet {
	return &bitSet{buckets: make([]uint64, (capacity>>6)+1)} // >> 6 == / 64
}

func (bs *bitSet) add(n int) {
	b := n >> 6
	if b >= len(bs.buckets) {
		grown := make([]uint64, b+1)
		copy(grown, bs.buckets)
		bs.buckets = grown
	}
	// n & 63 == n % 64
	bs.buckets[b] |= 1 << (n & 63)
}

func (bs *bitSet) has(n int) bool {
	b := n >> 6
	if n < 0 || b >= len(bs.buckets) {
		return false
	}
	return bs.buckets[b]&(1<<(n&63)) != 0
}

func (bs *bitSet) clear() {
	for i := range bs.buckets {
		bs.buckets[i] = 0
	}
}
