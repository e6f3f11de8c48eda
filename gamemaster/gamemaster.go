package gamemaster

import (
	"bgarena/game"
	"context"
	"errors"
)

// Engine is the authoritative game engine. It owns board state, dice, legal
// move generation and win detection; callers only ever see it through these
// commands.
type Engine interface {
	// NewGame resets the match state.
	NewGame(ctx context.Context) error
	// SetPlayerHuman marks a seat as externally driven so the engine does not
	// play it by itself.
	SetPlayerHuman(ctx context.Context, seat int) error
	// Roll rolls the dice for the side to move. Right after a roll the dice
	// read (0, 0) when the side to move faces a cube decision instead.
	Roll(ctx context.Context) error
	// Move applies a move in notation form. A well formed but illegal move is
	// rejected with ErrIllegalMove.
	Move(ctx context.Context, move string) error
	// AutoPlay lets the engine pick and play the current turn.
	AutoPlay(ctx context.Context) error
	Position(ctx context.Context) (Position, error)
	// Hints returns every legal play for the current dice, best first.
	Hints(ctx context.Context) ([]game.Hint, error)
	// PipCount returns the pip counts indexed by seat.
	PipCount(ctx context.Context) ([2]int, error)
	// MatchResult returns the winner's marker, empty while undecided.
	MatchResult(ctx context.Context) (string, error)
}

// Position is the raw engine view of the board. Board[0] is the side to
// move, each side from its own perspective.
type Position struct {
	Board [2]game.Side `json:"board"`
	Turn  int          `json:"turn"`
	Dice  [2]int       `json:"dice"`
}

// Seats returns the boards indexed by seat.
func (p Position) Seats() [2]game.Side {
	if p.Turn == game.SeatTwo {
		return [2]game.Side{p.Board[1], p.Board[0]}
	}
	return p.Board
}

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNoDice      = errors.New("dice not rolled")
	ErrDiceRolled  = errors.New("dice already rolled")
	ErrGameOver    = errors.New("game is over")
	ErrNoGame      = errors.New("no game in progress")
	ErrNoHints     = errors.New("no hints available")
	ErrInvalidSeat = errors.New("invalid seat")
)
