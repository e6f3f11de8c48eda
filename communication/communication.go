// Package communication defines the wire protocol used to drive a game
// engine that lives in another process.
package communication

import (
	"bgarena/gamemaster"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Communicator carries engine commands over some transport.
type Communicator interface {
	// Call sends a command with an optional payload and decodes the reply
	// payload into result when result is not nil.
	Call(ctx context.Context, command string, payload, result any) error
	Close() error
}

// Commands, named after the engine surface.
const (
	NewGame          = "new_game"
	SetPlayerHuman   = "set_player_human"
	Roll             = "roll"
	Move             = "move"
	AutoPlay         = "auto_play"
	QueryPosition    = "query_position"
	QueryHints       = "query_hints"
	QueryPipCount    = "query_pip_count"
	QueryMatchResult = "query_match_result"
	Ping             = "ping"
)

// Response types.
const (
	TypeResult = "result"
	TypeError  = "error"
)

// Request is a single command sent to the engine host.
type Request struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

type SeatPayload struct {
	Seat int `json:"seat"`
}

type MovePayload struct {
	Move string `json:"move"`
}

type PipCountPayload struct {
	Pips [2]int `json:"pips"`
}

type MatchResultPayload struct {
	Winner string `json:"winner"`
}

// Error codes for failures the caller may want to tell apart.
const (
	CodeIllegalMove    = "illegal_move"
	CodeNoDice         = "no_dice"
	CodeDiceRolled     = "dice_rolled"
	CodeGameOver       = "game_over"
	CodeNoGame         = "no_game"
	CodeNoHints        = "no_hints"
	CodeInvalidSeat    = "invalid_seat"
	CodeBadRequest     = "bad_request"
	CodeUnknownCommand = "unknown_command"
	CodeInternal       = "internal"
)

var ErrUnknownCommand = errors.New("unknown command")

var codes = []struct {
	code string
	err  error
}{
	{CodeIllegalMove, gamemaster.ErrIllegalMove},
	{CodeNoDice, gamemaster.ErrNoDice},
	{CodeDiceRolled, gamemaster.ErrDiceRolled},
	{CodeGameOver, gamemaster.ErrGameOver},
	{CodeNoGame, gamemaster.ErrNoGame},
	{CodeNoHints, gamemaster.ErrNoHints},
	{CodeInvalidSeat, gamemaster.ErrInvalidSeat},
	{CodeUnknownCommand, ErrUnknownCommand},
}

// ErrorCode returns the wire code of err.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// DecodeError turns an error response back into an error that matches the
// engine's sentinel errors.
func DecodeError(resp Response) error {
	for _, c := range codes {
		if c.code == resp.Code {
			return fmt.Errorf("%w: %s", c.err, resp.Error)
		}
	}
	return fmt.Errorf("engine error (%s): %s", resp.Code, resp.Error)
}

// ErrorResponse builds the reply for a failed request.
func ErrorResponse(id string, err error) Response {
	return Response{Type: TypeError, ID: id, Error: err.Error(), Code: ErrorCode(err)}
}

// ResultResponse builds the reply for a successful request.
func ResultResponse(id string, payload any) (Response, error) {
	resp := Response{Type: TypeResult, ID: id}
	if payload == nil {
		return resp, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	resp.Payload = data
	return resp, nil
}
