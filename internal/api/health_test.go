package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-dev-platform/backend/internal/chat"
	ws "ai-dev-platform/backend/internal/ws"
)

func healthEngine(buffer *chat.ContextBuffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	hub := ws.NewHub(buffer, &fixedGenerator{}, ws.DefaultOptions(), testLogger(), nil)
	engine := gin.New()
	NewHealthController(hub, buffer).RegisterRoutes(engine)
	return engine
}

func TestRootBanner(t *testing.T) {
	engine := healthEngine(chat.NewContextBuffer(50))

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AI Dev Platform API is running")
}

func TestHealthEndpoint(t *testing.T) {
	buffer := chat.NewContextBuffer(50)
	buffer.Append(chat.Message{UserID: "user1", Role: "developer", Text: "hi", Ts: chat.Now()})
	engine := healthEngine(buffer)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])

	ts, ok := resp["timestamp"].(string)
	require.True(t, ok, "timestamp must be present")
	_, err := time.Parse(chat.TimestampFormat, ts)
	assert.NoError(t, err, "timestamp must be ISO-8601")
}
