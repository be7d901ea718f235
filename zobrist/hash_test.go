package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/minigo/board"
)

func TestSameSeedSameKeys(t *testing.T) {
	is := is.New(t)
	z1 := &Zobrist{}
	z1.Initialize(64, DefaultSeed)
	z2 := &Zobrist{}
	z2.Initialize(64, DefaultSeed)
	is.Equal(z1.ourTable, z2.ourTable)
	is.Equal(z1.theirTable, z2.theirTable)

	z3 := &Zobrist{}
	z3.Initialize(64, DefaultSeed+1)
	is.True(z1.ourTable[0] != z3.ourTable[0])
	for i := 0; i < 64; i++ {
		is.True(z1.ourTable[i] != 0)
		is.True(z1.theirTable[i] != 0)
	}
}

func TestHashMirrorInvariant(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(board.MaxSize, DefaultSeed)

	for _, s := range []string{"x", "x.", "x.o", "xx.o..", "..o.xx", "x.o.o.x.", "oxo.xxo..x"} {
		p, err := board.Parse(s)
		is.NoErr(err)
		m := p.Mirror()
		is.Equal(z.Hash(p.Mine, p.Theirs, p.N), z.Hash(m.Mine, m.Theirs, m.N))
	}

	wide := board.Position{Mine: 0xF0F0, Theirs: 1 << 63, N: 64}
	m := wide.Mirror()
	is.Equal(z.Hash(wide.Mine, wide.Theirs, 64), z.Hash(m.Mine, m.Theirs, 64))
}

func TestHashDistinguishesSideToMove(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(board.MaxSize, DefaultSeed)
	p, err := board.Parse("x..o.")
	is.NoErr(err)
	s := p.Swap()
	is.True(z.Hash(p.Mine, p.Theirs, p.N) != z.Hash(s.Mine, s.Theirs, s.N))
}

func TestHashIsMinOfOrientations(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(16, DefaultSeed)
	p, err := board.Parse("xo.x..o")
	is.NoErr(err)
	m := p.Mirror()
	h1 := z.Unfolded(p.Mine, p.Theirs)
	h2 := z.Unfolded(m.Mine, m.Theirs)
	is.Equal(z.Hash(p.Mine, p.Theirs, p.N), min(h1, h2))
}
