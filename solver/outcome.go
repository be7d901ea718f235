package solver

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Outcome is the verdict for one candidate move.
type Outcome int8

const (
	Illegal Outcome = iota
	Win
	Loss
)

// The result-map alphabet: g(reen) wins, r(ed) loses, x is illegal.
const (
	winRune     = 'g'
	lossRune    = 'r'
	illegalRune = 'x'
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "illegal"
	}
}

func (o Outcome) Rune() rune {
	switch o {
	case Win:
		return winRune
	case Loss:
		return lossRune
	default:
		return illegalRune
	}
}

func outcomeFromScore(score int8) Outcome {
	if score > 0 {
		return Win
	}
	return Loss
}

// FormatOutcomes renders outcomes as a result map such as "rgr".
func FormatOutcomes(os []Outcome) string {
	return string(lo.Map(os, func(o Outcome, _ int) rune {
		return o.Rune()
	}))
}

// ParseOutcomes reads a result map written by FormatOutcomes.
func ParseOutcomes(s string) ([]Outcome, error) {
	s = strings.TrimSpace(s)
	out := make([]Outcome, 0, len(s))
	for i, r := range s {
		switch r {
		case winRune:
			out = append(out, Win)
		case lossRune:
			out = append(out, Loss)
		case illegalRune:
			out = append(out, Illegal)
		default:
			return nil, fmt.Errorf("unrecognized outcome %q at %d", r, i)
		}
	}
	return out, nil
}

// CountWins returns how many of the outcomes are wins.
func CountWins(os []Outcome) int {
	return lo.Count(os, Win)
}
