package compiled

import (
	"hash/fnv"
	"math"
)

// Bloom is a minimal bloom filter fronting the network exact-host table for
// O(1) negative lookups, sized for a target false-positive rate. No
// third-party bloom-filter package exists anywhere in the retrieved
// example corpus (see DESIGN.md); this hand-rolled implementation uses
// only hash/fnv, following the sizing formula the original policy engine
// uses (Bloom::new_for_fp_rate).
type Bloom struct {
	bits    []uint64
	nBits   uint64
	nHashes uint
}

// NewBloom sizes a filter for n expected members at the given false
// positive rate (e.g. 0.01 for 1%), matching spec §4.3's "≤1%" requirement.
func NewBloom(n int, fpRate float64) *Bloom {
	if n < 1 {
		n = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	m := optimalBits(n, fpRate)
	k := optimalHashes(n, m)
	words := (m + 63) / 64
	if words < 1 {
		words = 1
	}
	return &Bloom{bits: make([]uint64, words), nBits: words * 64, nHashes: k}
}

func optimalBits(n int, fpRate float64) uint64 {
	m := -float64(n) * math.Log(fpRate) / (math.Ln2 * math.Ln2)
	if m < 8 {
		m = 8
	}
	return uint64(math.Ceil(m))
}

func optimalHashes(n int, m uint64) uint {
	if n < 1 {
		n = 1
	}
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint(k)
}

func (b *Bloom) hashes(member string) (uint64, uint64) {
	h1 := fnv.New64a()
	h1.Write([]byte(member))
	sum1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write([]byte(member))
	sum2 := h2.Sum64()
	return sum1, sum2
}

// Add inserts member into the filter.
func (b *Bloom) Add(member string) {
	h1, h2 := b.hashes(member)
	for i := uint(0); i < b.nHashes; i++ {
		bit := (h1 + uint64(i)*h2) % b.nBits
		b.bits[bit/64] |= 1 << (bit % 64)
	}
}

// MightContain reports whether member may be in the set. A false result is
// definitive; a true result may be a false positive, bounded by the
// configured rate.
func (b *Bloom) MightContain(member string) bool {
	h1, h2 := b.hashes(member)
	for i := uint(0); i < b.nHashes; i++ {
		bit := (h1 + uint64(i)*h2) % b.nBits
		if b.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}
