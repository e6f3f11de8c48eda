package llm

import (
	"bgarena/game"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMove(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    game.Move
	}{
		{"fenced json", "Here you go:\n```json\n{\"move\": \"13/11 24/18\"}\n```", "13/11 24/18"},
		{"bare json", `I think {"move": "8/5 6/5", "reason": "make the point"} is best`, "8/5 6/5"},
		{"field line", "Analysis...\nMove: 24/20 13/11.\n", "24/20 13/11"},
		{"loose tokens", "The best play is bar/22 13/11, hitting nothing.", "bar/22 13/11"},
		{"invalid json move falls back", `{"move": "25/20"} so play 6/off 5/off`, "6/off 5/off"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractMove(tc.content)
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("nothing usable", func(t *testing.T) {
		_, ok := ExtractMove("I resign.")
		require.False(t, ok)
	})
}

func TestExtractScript(t *testing.T) {
	require.Equal(t, "return 1", ExtractScript("sure\n```lua\nreturn 1\n```\nbye"))
	require.Equal(t, "return 2", ExtractScript("  return 2 \n"))
}

func TestOpenAIComplete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"move\": \"24/18 13/11\"}"}}]
		}`)
	}))
	defer srv.Close()

	client := NewOpenAI("key", WithBaseURL(srv.URL+"/"), WithModel("test-model"), WithMaxTokens(64), WithMaxRetries(0))
	content, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	require.Equal(t, `{"move": "24/18 13/11"}`, content)

	require.Equal(t, "test-model", got.Model)
	require.Equal(t, 64, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, "user text", got.Messages[1].Content)
}
