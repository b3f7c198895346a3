package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

func newOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{BaseURL: srv.URL + "/v1", APIKey: "test", Model: "m", Timeout: 5 * time.Second})
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "c1", "object": "chat.completion", "model": "m",
		"choices": []map[string]any{{
			"index": 0, "finish_reason": "stop",
			"message": map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestOpenAIClient_InterviewReplaysHistory(t *testing.T) {
	var got chatRequest
	c := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("Pertanyaan berikutnya?")))
	})

	answer, err := c.Interview(context.Background(), "jawaban", []Message{
		{Role: RoleUser, Content: "seed"},
		{Role: RoleAssistant, Content: "q1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pertanyaan berikutnya?", answer)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, Message{Role: "user", Content: "seed"}, got.Messages[1])
	assert.Equal(t, Message{Role: "assistant", Content: "q1"}, got.Messages[2])
	assert.Equal(t, Message{Role: "user", Content: "jawaban"}, got.Messages[3])
}

func TestOpenAIClient_MappingParsesFencedJSON(t *testing.T) {
	c := newOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("```json\n{\"Layanan TI\":{\"level_kompetensi\":2,\"kecocokan\":0.5,\"status\":\"unassessed\"}}\n```")))
	})

	out, err := c.Mapping(context.Background(), "profil")
	require.NoError(t, err)
	assert.Equal(t, 2, out["Layanan TI"].LevelKompetensi)
}

func TestOpenAIClient_APIErrorIsUpstream(t *testing.T) {
	c := newOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := c.Interview(context.Background(), "p", nil)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, "rate limited", upstream.Message)
}

func TestOpenAIClient_QuestionsMalformed(t *testing.T) {
	c := newOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("bukan json")))
	})

	_, err := c.Questions(context.Background(), "Layanan TI", 1)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenAIClient_UndecodableBodyIsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>gateway</html>"},
		{name: "wrong shape", body: `{"choices":"none"}`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Interview(context.Background(), "p", nil)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.NotErrorIs(t, err, ErrServiceInterrupted)
		})
	}
}

func TestOpenAIClient_UnreachableIsInterrupted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewOpenAIClient(Config{BaseURL: base + "/v1", APIKey: "test", Model: "m", Timeout: 2 * time.Second})
	_, err := c.Interview(context.Background(), "p", nil)
	assert.ErrorIs(t, err, ErrServiceInterrupted)
}

func TestCountTokens(t *testing.T) {
	n := CountTokens("Halo, apa kabar?")
	if n < 0 {
		t.Skip("encoder unavailable")
	}
	assert.Greater(t, n, 0)
	assert.Equal(t, 0, CountTokens(""))
	assert.GreaterOrEqual(t, HistoryTokens([]Message{{Content: "a"}, {Content: "b"}}), 2)
}
