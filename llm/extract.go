package llm

import (
	"bgarena/game"
	"bgarena/notation"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)\{.*?\}`)
	moveField  = regexp.MustCompile(`(?im)^\s*move\s*:\s*(.+?)\s*$`)
	moveToken  = regexp.MustCompile(`(?i)\b(?:bar|[0-9]{1,2})/[0-9a-z*()/]+`)
	fencedCode = regexp.MustCompile("(?s)```(?:lua)?[ \\t]*\\n(.*?)```")
)

// ExtractMove pulls a move out of a model reply. It prefers a JSON object
// with a "move" field, then a "move: ..." line, then the first run of
// notation tokens in the text. Only grammatically valid moves are returned.
func ExtractMove(content string) (game.Move, bool) {
	candidates := []string{}
	for _, m := range fencedJSON.FindAllStringSubmatch(content, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, bareJSON.FindAllString(content, -1)...)
	for _, c := range candidates {
		if !gjson.Valid(c) {
			continue
		}
		move := gjson.Get(c, "move")
		if !move.Exists() {
			continue
		}
		if m, ok := clean(move.String()); ok {
			return m, true
		}
	}

	if m := moveField.FindStringSubmatch(content); m != nil {
		if move, ok := clean(m[1]); ok {
			return move, true
		}
	}

	var tokens []string
	for _, token := range moveToken.FindAllString(content, -1) {
		if notation.Validate(token) == nil {
			tokens = append(tokens, token)
		}
	}
	return clean(strings.Join(tokens, " "))
}

func clean(s string) (game.Move, bool) {
	s = strings.Trim(strings.TrimSpace(s), "\"'`.,;")
	if notation.Validate(s) != nil {
		return "", false
	}
	return game.Move(strings.Join(strings.Fields(s), " ")), true
}

// ExtractScript returns the first fenced code block, or the whole reply
// when there is none.
func ExtractScript(content string) string {
	if m := fencedCode.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}
