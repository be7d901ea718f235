package solver

import (
	"errors"
	"math/bits"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestTTableEntry(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	is.NoErr(tt.Reset(1 << 16))
	is.Equal(tt.sizePowerOf2, 16)

	tt.store(9409641586937047728, WinScore)
	score, ok := tt.lookup(9409641586937047728)
	is.True(ok)
	is.Equal(score, WinScore)

	tt.store(12345, LossScore)
	score, ok = tt.lookup(12345)
	is.True(ok)
	is.Equal(score, LossScore)

	is.Equal(tt.t2collisions.Load(), uint64(0))
	// same slot, different key.
	_, ok = tt.lookup(9409641586937047728 + (1 << 16))
	is.True(!ok)
	is.Equal(tt.t2collisions.Load(), uint64(1))

	// an empty slot is a miss but not a collision.
	_, ok = tt.lookup(9409641586937047728 + 1)
	is.True(!ok)
	is.Equal(tt.lookups.Load(), uint64(4))
	is.Equal(tt.hits.Load(), uint64(2))
	is.Equal(tt.t2collisions.Load(), uint64(1))
	is.Equal(tt.Stats().Created, uint64(2))
}

func TestTTableTornEntryIsAMiss(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	is.NoErr(tt.Reset(8))
	key := uint64(0xdeadbeef0)
	tt.store(key, WinScore)
	// Simulate a reader observing another writer's data word.
	e := &tt.table[key&tt.sizeMask]
	e.data.Store(packScore(LossScore))
	_, ok := tt.lookup(key)
	is.True(!ok)
}

func TestTTableClear(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	is.NoErr(tt.Reset(1 << 4))
	tt.store(3, WinScore)
	tt.Clear()
	_, ok := tt.lookup(3)
	is.True(!ok)
	is.Equal(tt.Stats().Created, uint64(0))

	// resetting to the same size reuses the allocation.
	before := &tt.table[0]
	is.NoErr(tt.Reset(1 << 4))
	is.Equal(before, &tt.table[0])
}

func TestTTableSizeErrors(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	is.True(errors.Is(tt.Reset(0), ErrTableSizeNotPowerOfTwo))
	is.True(errors.Is(tt.Reset(3), ErrTableSizeNotPowerOfTwo))
	is.True(errors.Is(tt.Reset(1<<(MaxTableSizePowerOf2+1)), ErrTableTooLarge))
	is.True(errors.Is(tt.ResetByMemoryFraction(0), ErrTableTooLarge))
	is.True(tt.table == nil)
}

func TestTTableConcurrentAccess(t *testing.T) {
	is := is.New(t)
	tt := &TranspositionTable{}
	is.NoErr(tt.Reset(1 << 6))
	// Keys share a handful of slots; every hit must return the score that
	// was stored under that key.
	scoreFor := func(key uint64) int8 {
		if key%3 == 0 {
			return WinScore
		}
		return LossScore
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20000; i++ {
				key := uint64((i*7+w)%512) + 1
				tt.store(key, scoreFor(key))
				if got, ok := tt.lookup(key ^ 64); ok && got != scoreFor(key^64) {
					t.Errorf("key %d: got %d", key^64, got)
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestPackScore(t *testing.T) {
	is := is.New(t)
	for _, score := range []int8{LossScore, WinScore} {
		is.True(packScore(score) != 0)
		is.Equal(unpackScore(packScore(score)), score)
	}
	// a torn read pairs one write's check with another's data; that must
	// not look like a valid entry for a key in a neighboring slot.
	diff := packScore(LossScore) ^ packScore(WinScore)
	is.True(bits.OnesCount64(diff) > 16)
}
