package notation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("accepts well formed moves", func(t *testing.T) {
		for _, text := range []string{
			"24/18* 13/11",
			"bar/20*(2)",
			"8/2 6/2",
			"13/11(2) 6/4(2)",
			"6/off 5/off",
			"BAR/22 6/OFF",
			"24/18/13",
			"  24/18\t13/11  ",
			"6/Off(2)",
		} {
			require.NoError(t, Validate(text), "%q should be valid", text)
		}
	})

	t.Run("rejects malformed moves with a specific kind", func(t *testing.T) {
		cases := []struct {
			text string
			kind ErrorKind
		}{
			{"", EmptyMove},
			{"   \t", EmptyMove},
			{"24-18", BadDestination},
			{"25/20", BadOrigin},
			{"0/5", BadOrigin},
			{"off/5", BadOrigin},
			{"x/5", BadOrigin},
			{"24/", BadDestination},
			{"24/25", BadDestination},
			{"24/0", BadDestination},
			{"24/bar", BadDestination},
			{"24/18 13", BadDestination},
			{"24/18(0)", BadRepeatCount},
			{"24/18(16)", BadRepeatCount},
			{"24/18()", BadRepeatCount},
			{"24/18(x)", BadRepeatCount},
			{"24/18(2)*", BadDestination},
			{"13/11 24/18**", BadDestination},
		}
		for _, c := range cases {
			err := Validate(c.text)
			require.Error(t, err, "%q should be invalid", c.text)
			require.True(t, errors.Is(err, ErrInvalidMove))
			require.Equal(t, c.kind, KindOf(err), "%q", c.text)
		}
	})

	t.Run("syntax error names the offending token", func(t *testing.T) {
		err := Validate("13/11 25/20")
		var se *SyntaxError
		require.ErrorAs(t, err, &se)
		require.Equal(t, "25", se.Token)
		require.Contains(t, err.Error(), "bad_origin")
	})

	t.Run("kind of foreign errors", func(t *testing.T) {
		require.Equal(t, NoError, KindOf(nil))
		require.Equal(t, NoError, KindOf(errors.New("boom")))
	})
}

func TestParse(t *testing.T) {
	t.Run("transitions and legs", func(t *testing.T) {
		move, err := Parse("bar/20*(2) 24/18/13")
		require.NoError(t, err)
		require.Len(t, move, 2)

		require.Equal(t, BarPoint, move[0].From)
		require.Equal(t, []Step{{Point: 20, Hit: true, Repeat: 2}}, move[0].Steps)
		require.Equal(t, 2, move[0].Count())

		require.Equal(t, 1, move[1].Count())
		require.Equal(t, []Leg{{From: 24, To: 18}, {From: 18, To: 13}}, move[1].Legs())
	})

	t.Run("bear off", func(t *testing.T) {
		move, err := Parse("6/off")
		require.NoError(t, err)
		require.True(t, move[0].Steps[0].Off())
		require.Equal(t, []Leg{{From: 6, To: OffPoint}}, move[0].Legs())
	})
}

func TestCanonicalForm(t *testing.T) {
	t.Run("round trip is idempotent", func(t *testing.T) {
		for _, text := range []string{
			"24/18* 13/11",
			"bar/20*(2)",
			"BAR/22 6/OFF",
			"  13/11(2)   6/4(2) ",
			"24/18*/13",
		} {
			move, err := Parse(text)
			require.NoError(t, err)

			canonical := move.String()
			again, err := Parse(canonical)
			require.NoError(t, err, "canonical %q must stay valid", canonical)
			require.Equal(t, move, again)
			require.Equal(t, canonical, again.String())
		}
	})

	t.Run("canonical text is lowercase and single spaced", func(t *testing.T) {
		move, err := Parse("BAR/22   6/OFF(2)")
		require.NoError(t, err)
		require.Equal(t, "bar/22 6/off(2)", move.String())
	})
}
