package ws

import (
	"context"
	"strings"

	"ai-dev-platform/backend/internal/chat"
)

// ApologyText is broadcast in place of an assistant reply when generation
// fails, so the channel always receives something
const ApologyText = "Sorry, I encountered an error while processing your request."

// evaluateTrigger inspects a just-broadcast message and, when it mentions the
// assistant, generates and broadcasts a reply from the recent context window.
// The assistant's own messages never fire the rule, so replies cannot loop.
// Generation failures are swallowed here: the apology message is broadcast
// and the error is only logged.
func (h *Hub) evaluateTrigger(msg chat.Message) {
	if !strings.Contains(msg.Text, h.opts.MentionKeyword) {
		return
	}
	if msg.UserID == h.opts.AssistantSender {
		return
	}
	if !h.agent.Configured() {
		return
	}

	// The window already includes the triggering message
	window := h.buffer.LastK(h.opts.ContextWindow)

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.ReplyTimeout)
	defer cancel()

	reply, err := h.agent.Generate(ctx, window, h.opts.AssistantSender)
	if err != nil {
		h.log.LogError(err, "Assistant reply generation failed", "trigger_user", msg.UserID)
		h.metrics.ReplyFailed(ctx)
		h.BroadcastAll(EventMessage, chat.Message{
			UserID: h.opts.AssistantSender,
			Role:   h.opts.AssistantSender,
			Text:   ApologyText,
			Ts:     chat.Now(),
		})
		return
	}

	h.metrics.ReplyGenerated(ctx)
	h.buffer.Append(reply)
	h.BroadcastAll(EventMessage, reply)
}
