// Package bitset implements the fixed-capacity bitmap that every cell mask
// and every constraint region in the solver is built on.
//
// The universe size (448 cells, 7 uint64 words) comfortably covers the
// largest Tametsi boards in circulation. Every operation is a fixed number
// of word ops — there is no dynamic allocation on the hot path.
package bitset

import "math/bits"

const (
	wordBits = 64
	// NumWords is the number of uint64 words backing every Set.
	NumWords = 7
	// Capacity is the maximum number of cells a Set can address.
	Capacity = wordBits * NumWords
)

// Set is a fixed-capacity bitmap over the cell universe [0, Capacity).
// It is a plain array, so it is comparable and usable directly as a map
// key — that comparability is what gives every Constraint's region its
// identity in the constraint store.
type Set [NumWords]uint64

// Full returns a Set with the low n bits set, representing the universe
// of a puzzle with n cells. Panics if n is out of range.
func Full(n int) Set {
	if n < 0 || n > Capacity {
		panic("bitset: n out of range")
	}
	var s Set
	for i := 0; i < n; i++ {
		s.Set(i)
	}
	return s
}

// Test reports whether bit i is set.
func (s Set) Test(i int) bool {
	return s[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0
}

// Set sets bit i.
func (s *Set) Set(i int) {
	s[i/wordBits] |= uint64(1) << uint(i%wordBits)
}

// Clear clears bit i.
func (s *Set) Clear(i int) {
	s[i/wordBits] &^= uint64(1) << uint(i%wordBits)
}

// Union returns a | b.
func Union(a, b Set) Set {
	var r Set
	for i := range r {
		r[i] = a[i] | b[i]
	}
	return r
}

// Intersect returns a & b.
func Intersect(a, b Set) Set {
	var r Set
	for i := range r {
		r[i] = a[i] & b[i]
	}
	return r
}

// Diff returns a &^ b (a with b's bits cleared).
func Diff(a, b Set) Set {
	var r Set
	for i := range r {
		r[i] = a[i] &^ b[i]
	}
	return r
}

// Complement returns the bits of universe not present in a.
func Complement(a, universe Set) Set {
	var r Set
	for i := range r {
		r[i] = universe[i] &^ a[i]
	}
	return r
}

// Intersects reports whether a and b share at least one bit.
func Intersects(a, b Set) bool {
	for i := range a {
		if a[i]&b[i] != 0 {
			return true
		}
	}
	return false
}

// PopCount returns the number of set bits.
func (s Set) PopCount() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Any reports whether any bit is set.
func (s Set) Any() bool {
	for _, w := range s {
		if w != 0 {
			return true
		}
	}
	return false
}

// None reports whether no bit is set.
func (s Set) None() bool {
	return !s.Any()
}

// Equal reports whether s and o have the same bits set.
func (s Set) Equal(o Set) bool {
	return s == o
}

// Bits returns the indices of set bits in ascending order.
func (s Set) Bits() []int {
	out := make([]int, 0, s.PopCount())
	s.ForEach(func(i int) bool {
		out = append(out, i)
		return true
	})
	return out
}

// ForEach calls fn for each set bit in ascending order, stopping early if fn
// returns false.
func (s Set) ForEach(fn func(i int) bool) {
	for w := 0; w < NumWords; w++ {
		word := s[w]
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			if !fn(w*wordBits + tz) {
				return
			}
			word &= word - 1
		}
	}
}

// Hash returns a deterministic FNV-1a digest of s, consistent with Equal.
// Map keying does not use it (Set is comparable and keys a map directly);
// it is for callers that want an explicit digest (e.g. audit logging of a
// constraint's region).
func (s Set) Hash() uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for _, w := range s {
		for i := 0; i < 8; i++ {
			h ^= (w >> uint(i*8)) & 0xff
			h *= 1099511628211 // FNV-1a prime
		}
	}
	return h
}

// String renders s as a fixed-width bracketed mask, 'X' for set bits and
// ' ' for clear ones, over all Capacity cells (StringN limits the width).
// Useful in diagnostics and panic messages.
func (s Set) String() string {
	return s.StringN(Capacity)
}

// StringN renders the first n bits of s.
func (s Set) StringN(n int) string {
	buf := make([]byte, 0, n+2)
	buf = append(buf, '[')
	for i := 0; i < n; i++ {
		if s.Test(i) {
			buf = append(buf, 'X')
		} else {
			buf = append(buf, ' ')
		}
	}
	buf = append(buf, ']')
	return string(buf)
}
