package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/pkg/errors"
	"ai-dev-platform/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func sampleTranscript(n int) []chat.Message {
	transcript := make([]chat.Message, 0, n)
	for i := 0; i < n; i++ {
		transcript = append(transcript, chat.Message{
			UserID: fmt.Sprintf("user%d", i),
			Role:   "developer",
			Text:   fmt.Sprintf("Message %d", i),
			Ts:     chat.Now(),
		})
	}
	return transcript
}

// upstreamStub records completion requests and answers with a fixed reply
type upstreamStub struct {
	mu       sync.Mutex
	calls    atomic.Int64
	lastBody completionRequest
	status   int
	reply    string
}

func (s *upstreamStub) last() completionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

func (s *upstreamStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		s.mu.Lock()
		err := json.NewDecoder(r.Body).Decode(&s.lastBody)
		s.mu.Unlock()
		require.NoError(t, err)

		if s.status != 0 && s.status != http.StatusOK {
			w.WriteHeader(s.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, s.reply)
	}))
}

func TestGenerateWithoutCredential(t *testing.T) {
	stub := &upstreamStub{reply: "unused"}
	srv := stub.server(t)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	assert.False(t, client.Configured())

	_, err := client.Generate(context.Background(), sampleTranscript(3), "assistant")
	require.Error(t, err)
	assert.Equal(t, ErrUpstreamUnavailable, err)
	assert.Contains(t, errors.GetErrorMessage(err), "OpenAI API key not configured")
	assert.EqualValues(t, 0, stub.calls.Load(), "no network call without a credential")
}

func TestGenerateRequestConstruction(t *testing.T) {
	stub := &upstreamStub{reply: "AI response"}
	srv := stub.server(t)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())

	_, err := client.Generate(context.Background(), sampleTranscript(15), "assistant")
	require.NoError(t, err)

	// 1 system entry plus exactly the last 10 transcript messages
	require.Len(t, stub.last().Messages, 11)
	assert.Equal(t, "system", stub.last().Messages[0].Role)
	assert.Equal(t, "[developer] user5: Message 5", stub.last().Messages[1].Content)
	assert.Equal(t, "[developer] user14: Message 14", stub.last().Messages[10].Content)

	assert.Equal(t, "gpt-3.5-turbo", stub.last().Model)
	assert.Equal(t, 500, stub.last().MaxTokens)
	assert.InDelta(t, 0.7, stub.last().Temperature, 0.001)
}

func TestGenerateRoleMapping(t *testing.T) {
	stub := &upstreamStub{reply: "ok"}
	srv := stub.server(t)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())

	transcript := []chat.Message{
		{UserID: "user1", Role: "developer", Text: "hi", Ts: chat.Now()},
		{UserID: "assistant", Role: "assistant", Text: "hello", Ts: chat.Now()},
	}
	_, err := client.Generate(context.Background(), transcript, "assistant")
	require.NoError(t, err)

	require.Len(t, stub.last().Messages, 3)
	assert.Equal(t, "user", stub.last().Messages[1].Role)
	assert.Equal(t, "assistant", stub.last().Messages[2].Role)
}

func TestGenerateSuccess(t *testing.T) {
	stub := &upstreamStub{reply: "  This is a helpful AI response.\n"}
	srv := stub.server(t)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())

	reply, err := client.Generate(context.Background(), sampleTranscript(3), "assistant")
	require.NoError(t, err)

	assert.Equal(t, "assistant", reply.UserID)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "This is a helpful AI response.", reply.Text)
	assert.NotEmpty(t, reply.Ts)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	stub := &upstreamStub{status: http.StatusInternalServerError}
	srv := stub.server(t)
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())

	_, err := client.Generate(context.Background(), sampleTranscript(3), "assistant")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUpstreamError))
	assert.Contains(t, errors.GetErrorMessage(err), "Error generating response")
}

func TestGenerateMalformedUpstreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger())

	_, err := client.Generate(context.Background(), sampleTranscript(1), "assistant")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUpstreamError))
}
