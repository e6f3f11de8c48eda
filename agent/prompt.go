package agent

import (
	"bgarena/game"
	"bgarena/notation"
	"fmt"
	"strings"
)

const defaultSystemPrompt = `You are an expert backgammon player.
Moves use gnubg notation: "from/to" per checker, "bar" for the bar, "off" for bearing off, "*" marks a hit and "(n)" repeats a transition, e.g. "13/9 24/22" or "8/5(2)".
Points are numbered 1 to 24 from the side to move, which moves from 24 towards 1.`

// describeBoard renders the snapshot from the mover's point of view.
func describeBoard(s game.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seat %d to move. ", s.Turn)
	if s.CubeDecision {
		b.WriteString("No dice rolled.\n")
	} else {
		fmt.Fprintf(&b, "Dice: %d-%d.\n", s.Dice[0], s.Dice[1])
	}
	writeSide(&b, "Your checkers", s.Mover(), false)
	writeSide(&b, "Opponent checkers", s.Opponent(), true)
	fmt.Fprintf(&b, "Pip counts: you %d, opponent %d.\n", s.Pips[0], s.Pips[1])
	return b.String()
}

// writeSide lists occupied points. Opponent points are translated to the
// mover's numbering.
func writeSide(b *strings.Builder, label string, side game.Side, flip bool) {
	b.WriteString(label + ":")
	for i := game.NumPoints - 1; i >= 0; i-- {
		if side[i] == 0 {
			continue
		}
		point := i + 1
		if flip {
			point = game.NumPoints - i
		}
		fmt.Fprintf(b, " %d:%d", point, side[i])
	}
	fmt.Fprintf(b, " bar:%d off:%d\n", side.Bar(), side.Off())
}

func describeInput(input game.Bundle) string {
	var b strings.Builder
	if moves, ok := input.PossibleMoves.Get(); ok {
		list := make([]string, len(moves))
		for i, m := range moves {
			list[i] = string(m)
		}
		fmt.Fprintf(&b, "Legal moves: %s\n", strings.Join(list, ", "))
	}
	if hints, ok := input.Hints.Get(); ok {
		b.WriteString("Engine hints (move, equity):\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "  %s %.3f\n", h.Move, h.Equity)
		}
	}
	if best, ok := input.BestMove.Get(); ok {
		if best == "" {
			best = "none available"
		}
		fmt.Fprintf(&b, "Engine best move: %s\n", best)
	}
	return b.String()
}

func movePrompt(board game.Snapshot, input game.Bundle) string {
	return describeBoard(board) + describeInput(input) +
		`Choose your move. Reply with JSON only: {"move": "<move>"}`
}

// rejection explains why previous was refused, in words a model can act on.
func rejection(previous game.Move) string {
	if previous == "" {
		return "You did not give a move."
	}
	if err := notation.Validate(string(previous)); err != nil {
		return fmt.Sprintf("Your move %q is not valid notation (%s).", previous, notation.KindOf(err))
	}
	return fmt.Sprintf("Your move %q is not legal with this roll.", previous)
}
