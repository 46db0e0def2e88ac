package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../api/openapi.yaml"

func validatedEngine(t *testing.T) *gin.Engine {
	t.Helper()
	v, err := NewOpenAPIValidator(schemaPath)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(v.Middleware())
	engine.POST("/agent/reply", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine
}

func TestSchemaRejectsMalformedTranscript(t *testing.T) {
	engine := validatedEngine(t)

	body := []byte(`{"transcript": "invalid format", "role": "assistant"}`)
	req, _ := http.NewRequest(http.MethodPost, "/agent/reply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestSchemaAcceptsValidTranscript(t *testing.T) {
	engine := validatedEngine(t)

	body := []byte(`{"transcript": [{"userId": "user1", "role": "developer", "text": "hi"}]}`)
	req, _ := http.NewRequest(http.MethodPost, "/agent/reply", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
