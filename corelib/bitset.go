package corelib

import "github.com/sourcehut-mirrors/selfcc/diag"

const wordBits = 64

// Bitset is a heap-backed, resizable bit vector (§5: "Bitsets may be either
// heap-backed (resizable) or statically backed (fixed capacity)").
type Bitset struct {
	words []uint64
	n     int
}

// NewBitset creates a Bitset of the given initial length in bits.
func NewBitset(n int) *Bitset {
	b := &Bitset{}
	b.Resize(n)
	return b
}

// Resize changes the bitset's logical length, zero-extending on growth and
// truncating on shrink. Resizing to length 0 is allowed for a heap-backed
// bitset (only StaticBitset forbids resize).
func (b *Bitset) Resize(n int) {
	if n < 0 {
		n = 0
	}
	b.n = n
	need := (n + wordBits - 1) / wordBits
	for len(b.words) < need {
		b.words = append(b.words, 0)
	}
	b.words = b.words[:need]
	if need > 0 {
		tailBits := n % wordBits
		if tailBits != 0 {
			mask := uint64(1)<<uint(tailBits) - 1
			b.words[need-1] &= mask
		}
	}
}

// Len returns the logical bit length.
func (b *Bitset) Len() int { return b.n }

// Get reads bit i. A bitset resized to length 0 returns out-of-bounds for
// any index, per §8's boundary behavior.
func (b *Bitset) Get(i int) (bool, error) {
	if i < 0 || i >= b.n {
		return false, diag.New(diag.OutOfBounds, "bit index %d out of range [0,%d)", i, b.n)
	}
	return b.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0, nil
}

// Set writes bit i to v.
func (b *Bitset) Set(i int, v bool) error {
	if i < 0 || i >= b.n {
		return diag.New(diag.OutOfBounds, "bit index %d out of range [0,%d)", i, b.n)
	}
	if v {
		b.words[i/wordBits] |= uint64(1) << uint(i%wordBits)
	} else {
		b.words[i/wordBits] &^= uint64(1) << uint(i%wordBits)
	}
	return nil
}

// FindFirstClear returns the lowest-indexed clear bit at or above start, or
// -1 if none exists within the current length.
func (b *Bitset) FindFirstClear(start int) int {
	for i := start; i < b.n; i++ {
		if set, _ := b.Get(i); !set {
			return i
		}
	}
	return -1
}

// SetRange allocates (sets) the lowest-indexed run of n consecutive clear
// bits, growing the bitset if necessary, and returns the starting index. Allocating a spill slot of length 0 is rejected (§8).
func (b *Bitset) SetRange(n int) (int, error) {
	if n <= 0 {
		return 0, diag.New(diag.InvalidParameter, "cannot allocate a run of length %d", n)
	}
	start := 0
	run := 0
	for start+run < b.n && run < n {
		set, _ := b.Get(start + run)
		if set {
			start += run + 1
			run = 0
			continue
		}
		run++
	}
	if start+n > b.n {
		b.Resize(start + n)
	}
	for i := start; i < start+n; i++ {
		_ = b.Set(i, true)
	}
	return start, nil
}

// StaticBitset is a fixed-capacity bitset; Resize is forbidden (§5).
type StaticBitset struct {
	words []uint64
	n     int
}

// NewStaticBitset creates a StaticBitset of fixed length n.
func NewStaticBitset(n int) *StaticBitset {
	return &StaticBitset{words: make([]uint64, (n+wordBits-1)/wordBits), n: n}
}

// Len returns the fixed bit length.
func (b *StaticBitset) Len() int { return b.n }

// Get reads bit i.
func (b *StaticBitset) Get(i int) (bool, error) {
	if i < 0 || i >= b.n {
		return false, diag.New(diag.OutOfBounds, "bit index %d out of range [0,%d)", i, b.n)
	}
	return b.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0, nil
}

// Set writes bit i to v.
func (b *StaticBitset) Set(i int, v bool) error {
	if i < 0 || i >= b.n {
		return diag.New(diag.OutOfBounds, "bit index %d out of range [0,%d)", i, b.n)
	}
	if v {
		b.words[i/wordBits] |= uint64(1) << uint(i%wordBits)
	} else {
		b.words[i/wordBits] &^= uint64(1) << uint(i%wordBits)
	}
	return nil
}

// Count returns the number of set bits.
func (b *StaticBitset) Count() int {
	n := 0
	for _, w := range b.words {
		for w != 0 {
			w &= w - 1
			n++
		}
	}
	return n
}
