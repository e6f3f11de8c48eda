package game

// Board geometry. A side's slots are indexed from its own perspective: index
// i is that side's point i+1, so index 0 is the last point before bearing off
// and BarIndex holds checkers waiting to enter.
const (
	NumPoints       = 24
	BarIndex        = 24
	BoardSize       = 25
	CheckersPerSide = 15
	HomePoints      = 6
)

// Seats of the two players. Seat 0 is the engine's X, seat 1 its O.
const (
	SeatOne = 0
	SeatTwo = 1
)

// Other returns the opposing seat.
func Other(seat int) int {
	return 1 - seat
}

// Move is a move in notation form, e.g. "24/18 13/11". It is opaque to the
// orchestration core and only ever checked by the notation package and the
// engine.
type Move string

func (m Move) String() string {
	return string(m)
}

// Hint is an engine-supplied candidate move with its equity for the mover.
type Hint struct {
	Move   Move    `json:"move"`
	Equity float64 `json:"equity"`
}

// Capabilities declares which optional inputs an agent requires.
type Capabilities struct {
	PossibleMoves bool `json:"possible_moves" env:"GAME_POSSIBLE_MOVES"`
	Hints         bool `json:"hints" env:"GAME_HINTS"`
	BestMove      bool `json:"best_move" env:"GAME_BEST_MOVE"`
}

func (c Capabilities) Union(other Capabilities) Capabilities {
	return Capabilities{
		PossibleMoves: c.PossibleMoves || other.PossibleMoves,
		Hints:         c.Hints || other.Hints,
		BestMove:      c.BestMove || other.BestMove,
	}
}

func (c Capabilities) Any() bool {
	return c.PossibleMoves || c.Hints || c.BestMove
}

// CubeOutcome is the resolution of a doubling cube decision.
type CubeOutcome int

const (
	CubeOffered CubeOutcome = iota
	CubeAccepted
	CubeRejected
	// CubeNoDouble is the mover passing on its own chance to double.
	CubeNoDouble
)

func (o CubeOutcome) String() string {
	switch o {
	case CubeOffered:
		return "offered"
	case CubeAccepted:
		return "accepted"
	case CubeRejected:
		return "rejected"
	case CubeNoDouble:
		return "no double"
	default:
		return "unknown"
	}
}
