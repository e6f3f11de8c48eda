package game

import (
	"fmt"
)

// Side is one player's checkers seen from that player's perspective.
type Side [BoardSize]int

// Checkers returns the number of checkers still on the board, bar included.
func (s Side) Checkers() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

func (s Side) Bar() int {
	return s[BarIndex]
}

// Off returns how many checkers have been borne off.
func (s Side) Off() int {
	return CheckersPerSide - s.Checkers()
}

// Pips is the distance this side still has to travel to bear everything off.
func (s Side) Pips() int {
	pips := 0
	for i, n := range s {
		pips += (i + 1) * n
	}
	return pips
}

// InZone counts the checkers on indices lo..hi inclusive.
func (s Side) InZone(lo, hi int) int {
	total := 0
	for i := max(lo, 0); i <= min(hi, BarIndex); i++ {
		total += s[i]
	}
	return total
}

// AllHome reports whether every remaining checker is in the home board.
func (s Side) AllHome() bool {
	return s.InZone(HomePoints, BarIndex) == 0
}

// StartingSide is the standard opening layout of either side.
func StartingSide() Side {
	var s Side
	s[23] = 2
	s[12] = 5
	s[7] = 3
	s[5] = 5
	return s
}

// Snapshot is the normalized board handed to agents and statistics for one
// turn. Board[0] is always the side to move and Board[1] its opponent, each
// from its own perspective; Pips is parallel to Board.
type Snapshot struct {
	Board        [2]Side `json:"board"`
	Turn         int     `json:"turn"`
	Dice         [2]int  `json:"dice"`
	Pips         [2]int  `json:"pips"`
	CubeDecision bool    `json:"cube_decision"`
}

// NewSnapshot normalizes seat-indexed boards so that the side of seat turn
// comes first.
func NewSnapshot(seats [2]Side, turn int, dice [2]int) Snapshot {
	board := seats
	if turn == SeatTwo {
		board = [2]Side{seats[SeatTwo], seats[SeatOne]}
	}
	return Snapshot{
		Board:        board,
		Turn:         turn,
		Dice:         dice,
		Pips:         [2]int{board[0].Pips(), board[1].Pips()},
		CubeDecision: dice == [2]int{},
	}
}

// Seat returns the side belonging to the given seat.
func (s Snapshot) Seat(seat int) Side {
	if seat == s.Turn {
		return s.Board[0]
	}
	return s.Board[1]
}

func (s Snapshot) Mover() Side {
	return s.Board[0]
}

func (s Snapshot) Opponent() Side {
	return s.Board[1]
}

// Validate checks the board invariants: no side holds more than
// CheckersPerSide checkers and no slot is negative.
func (s Snapshot) Validate() error {
	for i, side := range s.Board {
		for j, n := range side {
			if n < 0 || n > CheckersPerSide {
				return fmt.Errorf("side %d slot %d holds %d checkers", i, j, n)
			}
		}
		if total := side.Checkers(); total > CheckersPerSide {
			return fmt.Errorf("side %d holds %d checkers, more than %d", i, total, CheckersPerSide)
		}
	}
	if s.Turn != SeatOne && s.Turn != SeatTwo {
		return fmt.Errorf("invalid turn owner %d", s.Turn)
	}
	return nil
}
