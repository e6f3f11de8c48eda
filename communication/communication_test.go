package communication

import (
	"bgarena/gamemaster"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	t.Run("sentinels survive the wire", func(t *testing.T) {
		for _, sentinel := range []error{
			gamemaster.ErrIllegalMove,
			gamemaster.ErrNoDice,
			gamemaster.ErrDiceRolled,
			gamemaster.ErrGameOver,
			gamemaster.ErrNoGame,
			gamemaster.ErrNoHints,
			gamemaster.ErrInvalidSeat,
			ErrUnknownCommand,
		} {
			resp := ErrorResponse("1", fmt.Errorf("wrapped: %w", sentinel))
			require.Equal(t, TypeError, resp.Type)
			require.ErrorIs(t, DecodeError(resp), sentinel)
		}
	})

	t.Run("other errors are internal", func(t *testing.T) {
		resp := ErrorResponse("2", errors.New("disk on fire"))
		require.Equal(t, CodeInternal, resp.Code)
		err := DecodeError(resp)
		require.Contains(t, err.Error(), "disk on fire")
		require.False(t, errors.Is(err, gamemaster.ErrIllegalMove))
	})

	t.Run("result payload", func(t *testing.T) {
		resp, err := ResultResponse("3", PipCountPayload{Pips: [2]int{167, 160}})
		require.NoError(t, err)
		require.JSONEq(t, `{"pips":[167,160]}`, string(resp.Payload))

		empty, err := ResultResponse("4", nil)
		require.NoError(t, err)
		require.Empty(t, empty.Payload)
	})
}
