package zobrist

import (
	"encoding/binary"
	"math/bits"

	"github.com/cespare/xxhash"
	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// DefaultSeed makes hash keys reproducible across runs.
const DefaultSeed = 12345

// Zobrist computes a mirror-folded zobrist hash for a 1xN position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// The keys are per cell: one for a stone of the side to move, one for an
// opponent stone. A position and its left-right reflection hash to the
// same value.
type Zobrist struct {
	ourTable   []uint64
	theirTable []uint64

	maxSize int
	seed    uint64
}

// seedBytes stretches a 64-bit seed into the 32 bytes frand needs.
func seedBytes(seed uint64) []byte {
	out := make([]byte, 32)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(buf[8:], uint64(i))
		binary.LittleEndian.PutUint64(out[i*8:], xxhash.Sum64(buf[:]))
	}
	return out
}

// Initialize generates keys for boards of up to maxSize cells. The same
// seed always produces the same keys.
func (z *Zobrist) Initialize(maxSize int, seed uint64) {
	z.maxSize = maxSize
	z.seed = seed
	rng := frand.NewCustom(seedBytes(seed), 1024, 12)
	z.ourTable = make([]uint64, maxSize)
	z.theirTable = make([]uint64, maxSize)
	for i := 0; i < maxSize; i++ {
		z.ourTable[i] = rng.Uint64n(bignum) + 1
		z.theirTable[i] = rng.Uint64n(bignum) + 1
	}
}

func (z *Zobrist) MaxSize() int {
	return z.maxSize
}

func (z *Zobrist) Seed() uint64 {
	return z.seed
}

// Hash returns the fingerprint of the position where ours belongs to the
// side to move. It is the smaller of the hash of the board as given and
// the hash of its reflection.
func (z *Zobrist) Hash(ours, theirs uint64, n int) uint64 {
	var h1, h2 uint64
	last := n - 1
	for b := ours; b != 0; b &= b - 1 {
		i := bits.TrailingZeros64(b)
		h1 ^= z.ourTable[i]
		h2 ^= z.ourTable[last-i]
	}
	for b := theirs; b != 0; b &= b - 1 {
		i := bits.TrailingZeros64(b)
		h1 ^= z.theirTable[i]
		h2 ^= z.theirTable[last-i]
	}
	return min(h1, h2)
}

// Unfolded returns the hash of the board as given, without folding in its
// reflection.
func (z *Zobrist) Unfolded(ours, theirs uint64) uint64 {
	var h uint64
	for b := ours; b != 0; b &= b - 1 {
		h ^= z.ourTable[bits.TrailingZeros64(b)]
	}
	for b := theirs; b != 0; b &= b - 1 {
		h ^= z.theirTable[bits.TrailingZeros64(b)]
	}
	return h
}
