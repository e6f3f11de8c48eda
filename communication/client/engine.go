package client

import (
	"bgarena/communication"
	"bgarena/game"
	"bgarena/gamemaster"
	"context"
)

// Engine drives an engine hosted elsewhere through a Communicator.
type Engine struct {
	comm communication.Communicator
}

var _ gamemaster.Engine = (*Engine)(nil)

func NewEngine(comm communication.Communicator) *Engine {
	return &Engine{comm: comm}
}

// DialEngine connects to an engine host and returns the remote engine.
func DialEngine(ctx context.Context, url string, opts ...Option) (*Engine, error) {
	conn, err := Dial(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	return NewEngine(conn), nil
}

func (e *Engine) NewGame(ctx context.Context) error {
	return e.comm.Call(ctx, communication.NewGame, nil, nil)
}

func (e *Engine) SetPlayerHuman(ctx context.Context, seat int) error {
	return e.comm.Call(ctx, communication.SetPlayerHuman, communication.SeatPayload{Seat: seat}, nil)
}

func (e *Engine) Roll(ctx context.Context) error {
	return e.comm.Call(ctx, communication.Roll, nil, nil)
}

func (e *Engine) Move(ctx context.Context, move string) error {
	return e.comm.Call(ctx, communication.Move, communication.MovePayload{Move: move}, nil)
}

func (e *Engine) AutoPlay(ctx context.Context) error {
	return e.comm.Call(ctx, communication.AutoPlay, nil, nil)
}

func (e *Engine) Position(ctx context.Context) (gamemaster.Position, error) {
	var pos gamemaster.Position
	err := e.comm.Call(ctx, communication.QueryPosition, nil, &pos)
	return pos, err
}

func (e *Engine) Hints(ctx context.Context) ([]game.Hint, error) {
	var hints []game.Hint
	err := e.comm.Call(ctx, communication.QueryHints, nil, &hints)
	return hints, err
}

func (e *Engine) PipCount(ctx context.Context) ([2]int, error) {
	var p communication.PipCountPayload
	err := e.comm.Call(ctx, communication.QueryPipCount, nil, &p)
	return p.Pips, err
}

func (e *Engine) MatchResult(ctx context.Context) (string, error) {
	var p communication.MatchResultPayload
	err := e.comm.Call(ctx, communication.QueryMatchResult, nil, &p)
	return p.Winner, err
}

// Ping checks that the host answers.
func (e *Engine) Ping(ctx context.Context) error {
	return e.comm.Call(ctx, communication.Ping, nil, nil)
}

func (e *Engine) Close() error {
	return e.comm.Close()
}
