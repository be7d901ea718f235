package board

import "math/bits"

// IsCaptured reports whether the group of stones containing startBit has
// no liberty. stones holds one color, empty the empty cells, and startBit
// is a single bit that must be set in stones.
//
// Every cell that is not one of stones bounds the group. The nearest
// boundary on each side is found with a bit scan; that side has a liberty
// only if the boundary cell is empty. The board edge is never a liberty.
func IsCaptured(stones, empty, startBit uint64, n int) bool {
	boundaries := ^stones & FullMask(n)

	left := boundaries & (startBit - 1)
	if left != 0 {
		l := MaxSize - 1 - bits.LeadingZeros64(left)
		if empty&(1<<l) != 0 {
			return false
		}
	}
	right := boundaries &^ (startBit | (startBit - 1))
	if right != 0 {
		r := bits.TrailingZeros64(right)
		if empty&(1<<r) != 0 {
			return false
		}
	}
	return true
}

// IsCapturedByExpansion answers the same question as IsCaptured by growing
// the group one cell at a time. It is the reference the scan is checked
// against.
func IsCapturedByExpansion(stones, empty, startBit uint64, n int) bool {
	full := FullMask(n)
	group := startBit
	for {
		expanded := group
		expanded |= (group << 1) & stones
		expanded |= (group >> 1) & stones
		expanded &= full
		if expanded == group {
			break
		}
		group = expanded
	}
	return ((group<<1)|(group>>1))&empty&full == 0
}
