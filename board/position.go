package board

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// MaxSize is the largest board that fits in the fixed-width encoding.
const MaxSize = 64

const (
	MineRune   = 'x'
	TheirsRune = 'o'
	EmptyRune  = '.'
)

var (
	ErrBoardTooLarge      = errors.New("board size exceeds fixed-width capacity")
	ErrBoardTooSmall      = errors.New("board size must be at least 1")
	ErrOverlappingStones  = errors.New("a cell holds stones of both colors")
	ErrStoneOutOfRange    = errors.New("stone lies outside the board")
	ErrUnrecognizedSquare = errors.New("unrecognized square")
)

// Position is a 1xN board seen from the side to move. Mine holds the
// stones of the player on turn, Theirs the opponent's. Bit i is cell i.
type Position struct {
	Mine   uint64
	Theirs uint64
	N      int
}

// FullMask returns a mask with the low n bits set.
func FullMask(n int) uint64 {
	if n >= MaxSize {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// ValidateSize checks that n can be encoded.
func ValidateSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrBoardTooSmall, n)
	}
	if n > MaxSize {
		return fmt.Errorf("%w: %d > %d", ErrBoardTooLarge, n, MaxSize)
	}
	return nil
}

// Validate returns an error if the position cannot be searched.
func (p Position) Validate() error {
	if err := ValidateSize(p.N); err != nil {
		return err
	}
	if p.Mine&p.Theirs != 0 {
		return fmt.Errorf("%w: %#x", ErrOverlappingStones, p.Mine&p.Theirs)
	}
	if outside := (p.Mine | p.Theirs) &^ FullMask(p.N); outside != 0 {
		return fmt.Errorf("%w: %#x on a board of %d", ErrStoneOutOfRange, outside, p.N)
	}
	return nil
}

// Empty returns the empty cells.
func (p Position) Empty() uint64 {
	return ^(p.Mine | p.Theirs) & FullMask(p.N)
}

// Swap hands the move to the other side.
func (p Position) Swap() Position {
	return Position{Mine: p.Theirs, Theirs: p.Mine, N: p.N}
}

// Mirror reflects the board: cell i becomes cell N-1-i.
func (p Position) Mirror() Position {
	return Position{Mine: MirrorBits(p.Mine, p.N), Theirs: MirrorBits(p.Theirs, p.N), N: p.N}
}

// MirrorBits reflects the low n bits of x.
func MirrorBits(x uint64, n int) uint64 {
	return bits.Reverse64(x) >> (MaxSize - n)
}

// NumStones returns the number of stones on the board.
func (p Position) NumStones() int {
	return bits.OnesCount64(p.Mine | p.Theirs)
}

// Parse reads a board such as "x.o..". Cell 0 is the leftmost character.
// 'x' is a stone of the side to move, 'o' a stone of the opponent.
func Parse(s string) (Position, error) {
	s = strings.TrimSpace(s)
	p := Position{N: len(s)}
	if err := ValidateSize(p.N); err != nil {
		return Position{}, err
	}
	for i, r := range s {
		switch r {
		case MineRune, 'X', 'b', 'B':
			p.Mine |= 1 << i
		case TheirsRune, 'O', 'w', 'W':
			p.Theirs |= 1 << i
		case EmptyRune, '-', '_':
		default:
			return Position{}, fmt.Errorf("%w %q at %d", ErrUnrecognizedSquare, r, i)
		}
	}
	return p, nil
}

func (p Position) String() string {
	var sb strings.Builder
	sb.Grow(p.N)
	for i := 0; i < p.N; i++ {
		bit := uint64(1) << i
		switch {
		case p.Mine&bit != 0:
			sb.WriteRune(MineRune)
		case p.Theirs&bit != 0:
			sb.WriteRune(TheirsRune)
		default:
			sb.WriteRune(EmptyRune)
		}
	}
	return sb.String()
}
