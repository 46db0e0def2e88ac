package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/pkg/errors"
	"ai-dev-platform/backend/pkg/logger"
)

// ReplyGenerator produces one assistant message from a transcript
type ReplyGenerator interface {
	Generate(ctx context.Context, transcript []chat.Message, role string) (chat.Message, error)
	Configured() bool
}

// AgentController handles the stateless reply-generation endpoint
type AgentController struct {
	agent ReplyGenerator
	log   *logger.Logger
}

// NewAgentController creates a new agent controller
func NewAgentController(agent ReplyGenerator, log *logger.Logger) *AgentController {
	return &AgentController{agent: agent, log: log}
}

// RegisterRoutes registers the routes for the agent controller
func (c *AgentController) RegisterRoutes(router *gin.Engine) {
	router.POST("/agent/reply", c.Reply)
}

// agentReplyRequest is the body of POST /agent/reply
type agentReplyRequest struct {
	Transcript []chat.Message `json:"transcript" binding:"required"`
	Role       string         `json:"role"`
}

// Reply generates one assistant message from the posted transcript.
// The transcript is not buffered anywhere; this endpoint is stateless.
func (c *AgentController) Reply(ctx *gin.Context) {
	var req agentReplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": "Invalid request body: " + err.Error(),
		})
		return
	}

	if req.Role == "" {
		req.Role = "assistant"
	}

	reply, err := c.agent.Generate(ctx.Request.Context(), req.Transcript, req.Role)
	if err != nil {
		c.log.LogError(err, "Agent reply failed", "transcript_len", len(req.Transcript))
		ctx.JSON(errors.GetStatusCode(err), gin.H{"detail": errors.GetErrorMessage(err)})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": reply})
}
