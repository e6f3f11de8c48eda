// Package notation implements the move grammar agents must speak: a
// whitespace-separated list of transitions such as "24/18* 13/11" or
// "bar/20*(2)". It is a pure syntactic gate with no knowledge of the board.
package notation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinPoint  = 1
	MaxPoint  = 24
	MaxRepeat = 15 // checkers per side

	// BarPoint and OffPoint are the pseudo point numbers of the bar and of
	// borne-off checkers, seen from the mover.
	BarPoint = 25
	OffPoint = 0
)

// ErrorKind classifies why a move failed the grammar.
type ErrorKind int

const (
	NoError ErrorKind = iota
	EmptyMove
	BadOrigin
	BadDestination
	BadRepeatCount
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case EmptyMove:
		return "empty_move"
	case BadOrigin:
		return "bad_origin"
	case BadDestination:
		return "bad_destination"
	case BadRepeatCount:
		return "bad_repeat_count"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// ErrInvalidMove is wrapped by every SyntaxError.
var ErrInvalidMove = errors.New("invalid move")

// SyntaxError reports the offending token of a rejected move.
type SyntaxError struct {
	Kind  ErrorKind
	Token string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid move: %s", e.Kind)
	}
	return fmt.Sprintf("invalid move: %s at %q", e.Kind, e.Token)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidMove
}

// KindOf extracts the ErrorKind of err, NoError for nil or foreign errors.
func KindOf(err error) ErrorKind {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Kind
	}
	return NoError
}

// Step is one destination segment of a transition.
type Step struct {
	Point  int // 1-24, or OffPoint
	Hit    bool
	Repeat int // 0 when no (k) annotation
}

func (s Step) Off() bool {
	return s.Point == OffPoint
}

// Transition moves checkers from an origin through one or more destinations.
type Transition struct {
	From  int // 1-24, or BarPoint
	Steps []Step
}

// Count returns how many checkers the transition moves: the largest repeat
// annotation among its steps, 1 when none is given.
func (t Transition) Count() int {
	count := 1
	for _, s := range t.Steps {
		if s.Repeat > count {
			count = s.Repeat
		}
	}
	return count
}

// Leg is a single point-to-point hop of one checker.
type Leg struct {
	From int // 1-25 (BarPoint)
	To   int // 0 (OffPoint) - 24
	Hit  bool
}

// Legs expands the transition into the hops of a single checker, in order.
func (t Transition) Legs() []Leg {
	legs := make([]Leg, 0, len(t.Steps))
	from := t.From
	for _, s := range t.Steps {
		legs = append(legs, Leg{From: from, To: s.Point, Hit: s.Hit})
		from = s.Point
	}
	return legs
}

// Move is a parsed move.
type Move []Transition

var segmentPattern = regexp.MustCompile(`^(?i)([0-9]+|off)(\*)?(?:\(([^()]*)\))?$`)

// Validate reports whether text is a syntactically valid move. The returned
// error is a *SyntaxError.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

// Parse validates text and returns its transitions.
func Parse(text string) (Move, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, &SyntaxError{Kind: EmptyMove}
	}
	move := make(Move, 0, len(fields))
	for _, field := range fields {
		t, err := parseTransition(field)
		if err != nil {
			return nil, err
		}
		move = append(move, t)
	}
	return move, nil
}

func parseTransition(token string) (Transition, error) {
	parts := strings.Split(token, "/")
	if len(parts) < 2 {
		return Transition{}, &SyntaxError{Kind: BadDestination, Token: token}
	}

	var t Transition
	origin := strings.ToLower(parts[0])
	if origin == "bar" {
		t.From = BarPoint
	} else {
		n, ok := parsePoint(origin)
		if !ok {
			return Transition{}, &SyntaxError{Kind: BadOrigin, Token: parts[0]}
		}
		t.From = n
	}

	t.Steps = make([]Step, 0, len(parts)-1)
	for _, segment := range parts[1:] {
		s, err := parseStep(segment)
		if err != nil {
			return Transition{}, err
		}
		t.Steps = append(t.Steps, s)
	}
	return t, nil
}

func parseStep(segment string) (Step, error) {
	m := segmentPattern.FindStringSubmatch(segment)
	if m == nil {
		return Step{}, &SyntaxError{Kind: BadDestination, Token: segment}
	}

	var s Step
	if strings.EqualFold(m[1], "off") {
		s.Point = OffPoint
	} else {
		n, ok := parsePoint(m[1])
		if !ok {
			return Step{}, &SyntaxError{Kind: BadDestination, Token: segment}
		}
		s.Point = n
	}
	s.Hit = m[2] != ""

	// m[3] is empty both for "(" + ")" and for no annotation at all.
	if strings.Contains(segment, "(") {
		k, err := strconv.Atoi(m[3])
		if err != nil || k < 1 || k > MaxRepeat {
			return Step{}, &SyntaxError{Kind: BadRepeatCount, Token: segment}
		}
		s.Repeat = k
	}
	return s, nil
}

func parsePoint(s string) (int, bool) {
	if s == "" || len(s) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < MinPoint || n > MaxPoint {
		return 0, false
	}
	return n, true
}

// String renders the move in canonical form.
func (m Move) String() string {
	parts := make([]string, len(m))
	for i, t := range m {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func (t Transition) String() string {
	var b strings.Builder
	b.WriteString(pointName(t.From))
	for _, s := range t.Steps {
		b.WriteByte('/')
		b.WriteString(pointName(s.Point))
		if s.Hit {
			b.WriteByte('*')
		}
		if s.Repeat > 0 {
			fmt.Fprintf(&b, "(%d)", s.Repeat)
		}
	}
	return b.String()
}

func pointName(p int) string {
	switch p {
	case BarPoint:
		return "bar"
	case OffPoint:
		return "off"
	default:
		return strconv.Itoa(p)
	}
}
