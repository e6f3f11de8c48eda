package gamemaster

import (
	"bgarena/game"
	"bgarena/notation"
	"fmt"
	"sort"
	"strings"
)

// offIndex is the destination index of a checker borne off.
const offIndex = -1

// step moves a single checker, indices seen from the mover.
type step struct {
	from int
	to   int
	hit  bool
}

// play is one legal way of using a roll and the position it leads to.
type play struct {
	steps  []step
	mover  game.Side
	other  game.Side
	pips   int
	equity float64
}

// opposite maps a mover index to the same point seen from the opponent.
func opposite(i int) int {
	return game.NumPoints - 1 - i
}

// canMove reports whether the mover may move the checker at from by die pips.
func canMove(mover, other game.Side, from, die int) bool {
	if mover[from] == 0 {
		return false
	}
	if mover.Bar() > 0 && from != game.BarIndex {
		return false
	}
	to := from - die
	if to >= 0 {
		return other[opposite(to)] < 2
	}
	if !mover.AllHome() {
		return false
	}
	if to == offIndex {
		return true
	}
	// a larger die bears off only from the highest occupied point
	for i := game.HomePoints - 1; i > from; i-- {
		if mover[i] > 0 {
			return false
		}
	}
	return true
}

// applyStep moves one checker, hitting a lone opposing checker on arrival.
func applyStep(mover, other game.Side, from, to int) (game.Side, game.Side, bool) {
	mover[from]--
	if to < 0 {
		return mover, other, false
	}
	hit := false
	if other[opposite(to)] == 1 {
		other[opposite(to)] = 0
		other[game.BarIndex]++
		hit = true
	}
	mover[to]++
	return mover, other, hit
}

type generator struct {
	plays    []play
	maxDice  int
	maxPips  int
	hasPlays bool
}

// legalPlays enumerates every distinct legal play of the roll. Plays must use
// as many dice as possible, and the larger die when only one can be used.
// Plays leading to the same position are reported once.
func legalPlays(mover, other game.Side, dice [2]int) []play {
	g := &generator{}
	rolls := []int{dice[0], dice[1]}
	if dice[0] == dice[1] {
		rolls = []int{dice[0], dice[0], dice[0], dice[0]}
	}
	g.search(rolls, mover, other, nil, 0, game.BarIndex)
	if dice[0] != dice[1] {
		g.search([]int{dice[1], dice[0]}, mover, other, nil, 0, game.BarIndex)
	}
	if g.maxDice == 0 {
		return nil
	}
	return g.plays
}

func (g *generator) search(rolls []int, mover, other game.Side, steps []step, pips, start int) {
	if len(steps) == len(rolls) {
		g.save(steps, mover, other, pips)
		return
	}
	die := rolls[len(steps)]
	moved := false
	for from := start; from >= 0; from-- {
		if !canMove(mover, other, from, die) {
			continue
		}
		to := max(from-die, offIndex)
		nextMover, nextOther, hit := applyStep(mover, other, from, to)
		next := append(steps[:len(steps):len(steps)], step{from: from, to: to, hit: hit})
		// doubles are generated in descending origin order only
		nextStart := game.BarIndex
		if len(rolls) == 4 {
			nextStart = from
		}
		g.search(rolls, nextMover, nextOther, next, pips+die, nextStart)
		moved = true
	}
	if !moved {
		g.save(steps, mover, other, pips)
	}
}

func (g *generator) save(steps []step, mover, other game.Side, pips int) {
	switch {
	case !g.hasPlays || len(steps) > g.maxDice:
		g.plays = g.plays[:0]
		g.maxDice, g.maxPips = len(steps), pips
	case len(steps) < g.maxDice:
		return
	case pips < g.maxPips:
		return
	case pips > g.maxPips:
		g.plays = g.plays[:0]
		g.maxPips = pips
	}
	g.hasPlays = true
	for _, p := range g.plays {
		if p.mover == mover && p.other == other {
			return
		}
	}
	g.plays = append(g.plays, play{
		steps: append([]step(nil), steps...),
		mover: mover,
		other: other,
		pips:  pips,
	})
}

func pointName(i int) string {
	switch {
	case i == game.BarIndex:
		return "bar"
	case i < 0:
		return "off"
	default:
		return fmt.Sprint(i + 1)
	}
}

// String renders the play in notation: steps ordered by origin, identical
// steps folded into a repeat count.
func (p play) String() string {
	steps := append([]step(nil), p.steps...)
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].from != steps[j].from {
			return steps[i].from > steps[j].from
		}
		return steps[i].to > steps[j].to
	})

	var parts []string
	for i := 0; i < len(steps); {
		j := i + 1
		for j < len(steps) && steps[j] == steps[i] {
			j++
		}
		part := pointName(steps[i].from) + "/" + pointName(steps[i].to)
		if steps[i].hit {
			part += "*"
		}
		if j-i > 1 {
			part += fmt.Sprintf("(%d)", j-i)
		}
		parts = append(parts, part)
		i = j
	}
	return strings.Join(parts, " ")
}

// applyNotation applies a parsed move literally, leg by leg.
func applyNotation(mover, other game.Side, move notation.Move) (game.Side, game.Side, error) {
	for _, t := range move {
		for n := 0; n < t.Count(); n++ {
			for _, leg := range t.Legs() {
				from := leg.From - 1
				to := leg.To - 1
				if mover[from] == 0 {
					return mover, other, fmt.Errorf("%w: no checker on %s", ErrIllegalMove, pointName(from))
				}
				if to >= 0 && other[opposite(to)] >= 2 {
					return mover, other, fmt.Errorf("%w: point %s is blocked", ErrIllegalMove, pointName(to))
				}
				if to >= from {
					return mover, other, fmt.Errorf("%w: %s/%s moves backwards", ErrIllegalMove, pointName(from), pointName(to))
				}
				mover, other, _ = applyStep(mover, other, from, to)
			}
		}
	}
	return mover, other, nil
}

// matchPlay finds the legal play that leads to the position reached by
// applying move, if any.
func matchPlay(plays []play, mover, other game.Side, move notation.Move) (play, error) {
	mover, other, err := applyNotation(mover, other, move)
	if err != nil {
		return play{}, err
	}
	for _, p := range plays {
		if p.mover == mover && p.other == other {
			return p, nil
		}
	}
	return play{}, fmt.Errorf("%w: %s", ErrIllegalMove, move)
}
