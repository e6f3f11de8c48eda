package client

import (
	"bgarena/communication"
	"bgarena/communication/server"
	"bgarena/game"
	"bgarena/gamemaster"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	srv := server.New(func() gamemaster.Engine {
		return gamemaster.NewLocalEngine(gamemaster.WithSeed(11))
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/engine"
}

func TestRemoteEngine(t *testing.T) {
	url := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("plays through the engine surface", func(t *testing.T) {
		eng, err := DialEngine(ctx, url)
		require.NoError(t, err)
		defer eng.Close()

		require.NoError(t, eng.Ping(ctx))
		require.NoError(t, eng.NewGame(ctx))
		require.NoError(t, eng.SetPlayerHuman(ctx, game.SeatOne))
		require.NoError(t, eng.SetPlayerHuman(ctx, game.SeatTwo))

		pos, err := eng.Position(ctx)
		require.NoError(t, err)
		require.Equal(t, game.StartingSide(), pos.Board[0])

		require.ErrorIs(t, eng.Move(ctx, "24/18"), gamemaster.ErrNoDice)
		require.ErrorIs(t, eng.SetPlayerHuman(ctx, 5), gamemaster.ErrInvalidSeat)

		for pos.Dice == [2]int{} {
			require.NoError(t, eng.Roll(ctx))
			pos, err = eng.Position(ctx)
			require.NoError(t, err)
		}
		require.ErrorIs(t, eng.Roll(ctx), gamemaster.ErrDiceRolled)

		hints, err := eng.Hints(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, hints)

		require.ErrorIs(t, eng.Move(ctx, "24-18"), gamemaster.ErrIllegalMove)
		require.NoError(t, eng.Move(ctx, string(hints[0].Move)))

		after, err := eng.Position(ctx)
		require.NoError(t, err)
		require.Equal(t, game.Other(pos.Turn), after.Turn)

		pips, err := eng.PipCount(ctx)
		require.NoError(t, err)
		require.Less(t, pips[pos.Turn], 167)

		marker, err := eng.MatchResult(ctx)
		require.NoError(t, err)
		require.Empty(t, marker)

		require.NoError(t, eng.AutoPlay(ctx))
	})

	t.Run("every connection gets its own engine", func(t *testing.T) {
		first, err := DialEngine(ctx, url)
		require.NoError(t, err)
		defer first.Close()
		second, err := DialEngine(ctx, url)
		require.NoError(t, err)
		defer second.Close()

		require.NoError(t, first.NewGame(ctx))
		_, err = second.Position(ctx)
		require.ErrorIs(t, err, gamemaster.ErrNoGame)
	})

	t.Run("unknown commands are reported", func(t *testing.T) {
		conn, err := Dial(ctx, url)
		require.NoError(t, err)
		defer conn.Close()

		err = conn.Call(ctx, "resign", nil, nil)
		require.ErrorIs(t, err, communication.ErrUnknownCommand)
	})

	t.Run("dial failure", func(t *testing.T) {
		_, err := DialEngine(ctx, "ws://127.0.0.1:1/engine")
		require.Error(t, err)
	})
}

func TestSilentEngine(t *testing.T) {
	// accepts commands and never answers
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	eng, err := DialEngine(context.Background(), url, WithCallTimeout(100*time.Millisecond))
	require.NoError(t, err)
	defer eng.Close()

	done := make(chan error, 1)
	go func() {
		_, err := eng.Position(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("call without a deadline never returned")
	}
}
