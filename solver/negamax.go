package solver

import (
	"math/bits"

	"github.com/domino14/minigo/board"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

// Scores are from the point of view of the side to move. The game has no
// draws and no depth limit, so every node resolves to one of these.
const (
	WinScore  = int8(1)
	LossScore = int8(-1)
)

// captures reports whether a stone placed at idx leaves an adjacent enemy
// group without liberties. emptyAfter already excludes idx. Any capture
// ends the game, so the right neighbor is only checked if the left one
// did not capture.
func (s *Solver) captures(theirs, emptyAfter uint64, idx int) bool {
	if idx > 0 && theirs&(1<<(idx-1)) != 0 &&
		board.IsCaptured(theirs, emptyAfter, 1<<(idx-1), s.n) {
		return true
	}
	if idx < s.n-1 && theirs&(1<<(idx+1)) != 0 &&
		board.IsCaptured(theirs, emptyAfter, 1<<(idx+1), s.n) {
		return true
	}
	return false
}

// suicide reports whether a non-capturing stone at bit leaves its own
// group without liberties. A group can only be enclosed if the opponent
// has a stone on the board; a group spanning the whole board is not.
func (s *Solver) suicide(next, theirs, emptyAfter, bit uint64) bool {
	return theirs != 0 && board.IsCaptured(next, emptyAfter, bit, s.n)
}

// orderedMoves splits the empty cells into the buckets searched in turn:
// cells next to an enemy stone, cells next to our own stones, the rest.
func (s *Solver) orderedMoves(ours, theirs, empty uint64) [3]uint64 {
	if !s.moveOrderingOptim {
		return [3]uint64{empty, 0, 0}
	}
	theirAdj := ((theirs << 1) | (theirs >> 1)) & empty
	ourAdj := ((ours << 1) | (ours >> 1)) & empty &^ theirAdj
	rest := empty &^ (theirAdj | ourAdj)
	return [3]uint64{theirAdj, ourAdj, rest}
}

func (s *Solver) storeScore(key uint64, score int8) int8 {
	if s.transpositionTableOptim {
		s.ttable.store(key, score)
	}
	return score
}

// negamax returns WinScore if the side owning ours wins with best play
// from both sides, LossScore otherwise. The root window is [-1, 1], which
// makes every returned (and stored) score exact.
func (s *Solver) negamax(ours, theirs uint64, α, β int8) int8 {
	s.nodes.Add(1)
	var nodeKey uint64
	if s.transpositionTableOptim {
		nodeKey = s.zobrist.Hash(ours, theirs, s.n)
		if score, ok := s.ttable.lookup(nodeKey); ok {
			return score
		}
	}

	empty := ^(ours | theirs) & s.fullMask
	if empty == 0 {
		// No move at all.
		return s.storeScore(nodeKey, LossScore)
	}

	legalMoveFound := false
	bestValue := LossScore - 1

	for _, moves := range s.orderedMoves(ours, theirs, empty) {
		for ; moves != 0; moves &= moves - 1 {
			idx := bits.TrailingZeros64(moves)
			bit := uint64(1) << idx
			emptyAfter := empty &^ bit

			if s.captures(theirs, emptyAfter, idx) {
				// Capturing wins outright; no sibling can do better.
				return s.storeScore(nodeKey, WinScore)
			}
			next := ours | bit
			if s.suicide(next, theirs, emptyAfter, bit) {
				continue
			}
			legalMoveFound = true

			value := -s.negamax(theirs, next, -β, -α)
			bestValue = max(bestValue, value)
			if bestValue >= β {
				return s.storeScore(nodeKey, bestValue) // beta cut-off
			}
			α = max(α, bestValue)
		}
	}

	if !legalMoveFound {
		// Every empty cell is suicide.
		return s.storeScore(nodeKey, LossScore)
	}
	return s.storeScore(nodeKey, bestValue)
}

// moveOutcome classifies placing a stone for the side to move at idx,
// searching the reply if the move is legal and does not capture.
func (s *Solver) moveOutcome(ours, theirs uint64, idx int) Outcome {
	bit := uint64(1) << idx
	empty := ^(ours | theirs) & s.fullMask
	if empty&bit == 0 {
		return Illegal
	}
	emptyAfter := empty &^ bit
	if s.captures(theirs, emptyAfter, idx) {
		return Win
	}
	next := ours | bit
	if s.suicide(next, theirs, emptyAfter, bit) {
		return Illegal
	}
	return outcomeFromScore(-s.negamax(theirs, next, LossScore, WinScore))
}
