package di

import (
	"ai-dev-platform/backend/internal/agent"
	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/internal/ws"
	"ai-dev-platform/backend/pkg/config"
	"ai-dev-platform/backend/pkg/logger"
	"ai-dev-platform/backend/shared/observability"
)

// Container holds all the dependencies for the application
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Buffer  *chat.ContextBuffer
	Agent   *agent.Client
	Hub     *ws.Hub
	Metrics *observability.Metrics
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	buffer := chat.NewContextBuffer(cfg.Chat.BufferCapacity)

	agentClient := agent.NewClient(agent.Config{
		APIKey:        cfg.OpenAI.APIKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		Model:         cfg.OpenAI.Model,
		MaxTokens:     cfg.OpenAI.MaxTokens,
		Temperature:   cfg.OpenAI.Temperature,
		Timeout:       cfg.OpenAI.Timeout,
		ContextWindow: cfg.Chat.ContextWindow,
	}, log)

	hub := ws.NewHub(buffer, agentClient, ws.Options{
		MentionKeyword:  cfg.Chat.MentionKeyword,
		AssistantSender: cfg.Chat.AssistantSender,
		ContextWindow:   cfg.Chat.ContextWindow,
		ReplyTimeout:    cfg.OpenAI.Timeout,
		DefaultRoom:     cfg.Chat.DefaultRoom,
	}, log, metrics)

	return &Container{
		Config:  cfg,
		Logger:  log,
		Buffer:  buffer,
		Agent:   agentClient,
		Hub:     hub,
		Metrics: metrics,
	}, nil
}
