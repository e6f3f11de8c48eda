package game

import (
	"bgarena/utils"
)

// Bundle is the optional input an agent may consult when choosing a move.
// A field that was not granted is absent, which is distinct from a granted
// but empty value. A granted BestMove is the empty move when the engine had
// no hints.
type Bundle struct {
	PossibleMoves utils.Optional[[]Move] `json:"possible_moves"`
	Hints         utils.Optional[[]Hint] `json:"hints"`
	BestMove      utils.Optional[Move]   `json:"best_move"`
}

// Filter drops every field caps does not declare. It never fills in a field
// that is absent.
func (b Bundle) Filter(caps Capabilities) Bundle {
	var out Bundle
	if caps.PossibleMoves {
		out.PossibleMoves = b.PossibleMoves
	}
	if caps.Hints {
		out.Hints = b.Hints
	}
	if caps.BestMove {
		out.BestMove = b.BestMove
	}
	return out
}

// Granted reports the capabilities whose fields are present.
func (b Bundle) Granted() Capabilities {
	return Capabilities{
		PossibleMoves: b.PossibleMoves.Present(),
		Hints:         b.Hints.Present(),
		BestMove:      b.BestMove.Present(),
	}
}

// TurnContext is the per-turn value handed around while a move is resolved.
type TurnContext struct {
	Number int
	Seat   int
	Dice   [2]int
	Board  Snapshot
	Input  Bundle
}
