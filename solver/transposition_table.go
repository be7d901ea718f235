package solver

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 16

// MaxTableSizePowerOf2 bounds the table at 2^40 entries (16 TiB).
const MaxTableSizePowerOf2 = 40

var (
	ErrTableSizeNotPowerOfTwo = errors.New("transposition table size must be a power of two")
	ErrTableTooLarge          = errors.New("transposition table does not fit in memory")
)

// TableEntry is a slot in the transposition table. Both words are read and
// written atomically but not together, so check holds key^data: a reader
// that sees halves of two different writes fails the check and treats the
// slot as a miss. data is zero for an empty slot.
//
// 16 bytes (entrySize)
type TableEntry struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// Scores are offset by 2 so that a valid entry never has data == 0, then
// spread over all 64 bits. Two different packed scores differ in many bits,
// so mixing the check of one write with the data of another cannot pass
// for some third key.
const (
	scoreSpread    = 0x9e3779b97f4a7c15
	scoreSpreadInv = 0xf1de83e19937733d
)

func packScore(score int8) uint64 {
	return uint64(score+2) * scoreSpread
}

func unpackScore(data uint64) int8 {
	return int8(data*scoreSpreadInv) - 2
}

// TranspositionTable maps fingerprints to verdicts. It is shared without
// locks between the goroutines of a parallel analysis; collisions and racy
// overwrites only ever cost a recomputation.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// Index collisions: the slot holds a different position.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) lookup(key uint64) (int8, bool) {
	t.lookups.Add(1)
	e := &t.table[key&t.sizeMask]
	data := e.data.Load()
	check := e.check.Load()
	if data == 0 {
		return 0, false
	}
	if check^data != key {
		t.t2collisions.Add(1)
		return 0, false
	}
	t.hits.Add(1)
	return unpackScore(data), true
}

func (t *TranspositionTable) store(key uint64, score int8) {
	e := &t.table[key&t.sizeMask]
	data := packScore(score)
	// just overwrite whatever is there.
	e.data.Store(0)
	e.check.Store(key ^ data)
	e.data.Store(data)
	t.created.Add(1)
}

// Reset allocates (or clears) a table of numElems entries. numElems must
// be a power of two and the table must fit in physical memory.
func (t *TranspositionTable) Reset(numElems uint64) error {
	if numElems == 0 || numElems&(numElems-1) != 0 {
		return fmt.Errorf("%w: %d", ErrTableSizeNotPowerOfTwo, numElems)
	}
	powerOf2 := bits.TrailingZeros64(numElems)
	if powerOf2 > MaxTableSizePowerOf2 {
		return fmt.Errorf("%w: 2^%d entries", ErrTableTooLarge, powerOf2)
	}
	totalMem := memory.TotalMemory()
	if totalMem > 0 && numElems*entrySize > totalMem {
		return fmt.Errorf("%w: %d bytes requested, %d available",
			ErrTableTooLarge, numElems*entrySize, totalMem)
	}

	reset := false
	if t.table != nil && uint64(len(t.table)) == numElems {
		reset = true
		t.Clear()
	} else {
		t.table = nil
		t.table = make([]TableEntry, numElems)
	}
	t.sizePowerOf2 = powerOf2
	t.sizeMask = numElems - 1

	log.Debug().Uint64("num-elems", numElems).
		Uint64("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")
	t.resetCounters()
	return nil
}

// ResetByMemoryFraction sizes the table to the biggest power of two that
// fits in the given fraction of physical memory.
func (t *TranspositionTable) ResetByMemoryFraction(fractionOfMemory float64) error {
	totalMem := memory.TotalMemory()
	if totalMem == 0 {
		return fmt.Errorf("%w: cannot determine system memory", ErrTableTooLarge)
	}
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	if desiredNElems < 1 {
		return fmt.Errorf("%w: fraction %v leaves no room", ErrTableTooLarge, fractionOfMemory)
	}
	// find biggest power of 2 lower than desired.
	powerOf2 := min(int(math.Log2(desiredNElems)), MaxTableSizePowerOf2)
	return t.Reset(uint64(1) << powerOf2)
}

// Clear invalidates every entry. Fingerprints of different board sizes are
// not comparable, so the table must be cleared between sizes.
func (t *TranspositionTable) Clear() {
	for i := range t.table {
		t.table[i].data.Store(0)
		t.table[i].check.Store(0)
	}
	t.resetCounters()
}

func (t *TranspositionTable) resetCounters() {
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

func (t *TranspositionTable) Size() int {
	return len(t.table)
}

// TableStats are the counters accumulated since the last clear.
type TableStats struct {
	Size         int
	Created      uint64
	Lookups      uint64
	Hits         uint64
	T2Collisions uint64
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Size:         len(t.table),
		Created:      t.created.Load(),
		Lookups:      t.lookups.Load(),
		Hits:         t.hits.Load(),
		T2Collisions: t.t2collisions.Load(),
	}
}
