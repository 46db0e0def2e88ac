package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-dev-platform/backend/internal/agent"
	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/pkg/errors"
	"ai-dev-platform/backend/pkg/logger"
)

func agentError() error {
	return errors.NewInternalServerError(errors.CodeUpstreamError, "Error generating response: API Error")
}

// fixedGenerator is a ReplyGenerator test double with a canned outcome
type fixedGenerator struct {
	reply chat.Message
	err   error
}

func (g *fixedGenerator) Generate(context.Context, []chat.Message, string) (chat.Message, error) {
	if g.err != nil {
		return chat.Message{}, g.err
	}
	return g.reply, nil
}

func (g *fixedGenerator) Configured() bool { return g.err == nil }

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func newTestEngine(gen ReplyGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewAgentController(gen, testLogger()).RegisterRoutes(engine)
	return engine
}

func postReply(t *testing.T, engine *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "/agent/reply", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func sampleTranscript() []chat.Message {
	return []chat.Message{
		{UserID: "user1", Role: "developer", Text: "Hello there!", Ts: "2024-01-01T10:00:00.000Z"},
		{UserID: "user2", Role: "developer", Text: "How can I help with the project?", Ts: "2024-01-01T10:01:00.000Z"},
		{UserID: "user1", Role: "developer", Text: "@Assistant Can you explain this code?", Ts: "2024-01-01T10:02:00.000Z"},
	}
}

func TestAgentReplySuccess(t *testing.T) {
	gen := &fixedGenerator{reply: chat.Message{
		UserID: "assistant",
		Role:   "assistant",
		Text:   "This is a helpful AI response.",
		Ts:     chat.Now(),
	}}
	engine := newTestEngine(gen)

	w := postReply(t, engine, gin.H{"transcript": sampleTranscript(), "role": "assistant"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message chat.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "assistant", resp.Message.UserID)
	assert.Equal(t, "assistant", resp.Message.Role)
	assert.Equal(t, "This is a helpful AI response.", resp.Message.Text)
	assert.NotEmpty(t, resp.Message.Ts)
}

func TestAgentReplyNoAPIKey(t *testing.T) {
	// A real client without a credential fails fast before any network call
	client := agent.NewClient(agent.Config{}, testLogger())
	engine := newTestEngine(client)

	w := postReply(t, engine, gin.H{"transcript": sampleTranscript(), "role": "assistant"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "OpenAI API key not configured")
}

func TestAgentReplyUpstreamFailure(t *testing.T) {
	gen := &fixedGenerator{err: agentError()}
	engine := newTestEngine(gen)

	w := postReply(t, engine, gin.H{"transcript": sampleTranscript()})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error generating response")
}

func TestAgentReplyInvalidBody(t *testing.T) {
	engine := newTestEngine(&fixedGenerator{})

	w := postReply(t, engine, gin.H{"transcript": "invalid format", "role": "assistant"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAgentReplyMissingTranscript(t *testing.T) {
	engine := newTestEngine(&fixedGenerator{})

	w := postReply(t, engine, gin.H{"role": "assistant"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAgentReplyDefaultsRole(t *testing.T) {
	var gotRole string
	gen := &roleRecorder{role: &gotRole}
	engine := newTestEngine(gen)

	w := postReply(t, engine, gin.H{"transcript": sampleTranscript()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "assistant", gotRole)
}

// roleRecorder captures the requested assistant role
type roleRecorder struct {
	role *string
}

func (g *roleRecorder) Generate(_ context.Context, _ []chat.Message, role string) (chat.Message, error) {
	*g.role = role
	return chat.Message{UserID: "assistant", Role: role, Text: "ok", Ts: chat.Now()}, nil
}

func (g *roleRecorder) Configured() bool { return true }
