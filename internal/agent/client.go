package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-dev-platform/backend/internal/chat"
	"ai-dev-platform/backend/pkg/errors"
	"ai-dev-platform/backend/pkg/logger"
	"ai-dev-platform/backend/pkg/resilience"
)

// AssistantSender is the sender id the assistant writes under. Messages from
// this sender are mapped to the upstream "assistant" party and never
// re-trigger reply generation.
const AssistantSender = "assistant"

// systemPrompt is the fixed instruction prepended to every completion request
const systemPrompt = "You are a helpful AI assistant in a development platform. " +
	"Respond concisely and helpfully to the conversation."

// Config holds the upstream completion API settings
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	ContextWindow int
}

// DefaultConfig returns the settings the relay ships with
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.openai.com/v1",
		Model:         "gpt-3.5-turbo",
		MaxTokens:     500,
		Temperature:   0.7,
		Timeout:       30 * time.Second,
		ContextWindow: 10,
	}
}

// Client generates assistant replies from a conversation transcript by
// calling the upstream chat-completions API
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	log        *logger.Logger
}

// NewClient creates a reply generator. A missing API key is not an error
// here; Generate fails fast with ErrUpstreamUnavailable instead, so the
// relay still runs as a plain broadcast channel.
func NewClient(cfg Config, log *logger.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ContextWindow == 0 {
		cfg.ContextWindow = defaults.ContextWindow
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("openai"), log),
		log:        log,
	}
}

// Configured reports whether an upstream credential is present
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// ErrUpstreamUnavailable is returned when no API credential is configured.
// No network call is made in that case.
var ErrUpstreamUnavailable = errors.NewServiceUnavailableError(
	errors.CodeUpstreamUnavailable,
	"OpenAI API key not configured",
)

func upstreamError(cause error) *errors.AppError {
	return errors.NewInternalServerError(
		errors.CodeUpstreamError,
		fmt.Sprintf("Error generating response: %v", cause),
	).WithCause(cause)
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []completionMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces one assistant message from the given transcript. Only the
// most recent ContextWindow messages are sent upstream, each formatted as
// "[role] userId: text" after the fixed system instruction. The returned
// message carries the assistant sender id, the requested role and a fresh
// timestamp; appending it anywhere is the caller's responsibility.
func (c *Client) Generate(ctx context.Context, transcript []chat.Message, role string) (chat.Message, error) {
	if !c.Configured() {
		return chat.Message{}, ErrUpstreamUnavailable
	}

	messages := c.buildMessages(transcript)

	var text string
	err := c.breaker.Execute(func() error {
		var callErr error
		text, callErr = c.complete(ctx, messages)
		return callErr
	})
	if err != nil {
		return chat.Message{}, upstreamError(err)
	}

	return chat.Message{
		UserID: AssistantSender,
		Role:   role,
		Text:   strings.TrimSpace(text),
		Ts:     chat.Now(),
	}, nil
}

// buildMessages maps the transcript window onto the upstream two-party role
// model: the assistant's own messages become "assistant" entries, everything
// else is a "user" entry tagged with the sender's chat role and id
func (c *Client) buildMessages(transcript []chat.Message) []completionMessage {
	if len(transcript) > c.cfg.ContextWindow {
		transcript = transcript[len(transcript)-c.cfg.ContextWindow:]
	}

	messages := make([]completionMessage, 0, len(transcript)+1)
	messages = append(messages, completionMessage{Role: "system", Content: systemPrompt})

	for _, msg := range transcript {
		party := "user"
		if msg.UserID == AssistantSender {
			party = "assistant"
		}
		messages = append(messages, completionMessage{
			Role:    party,
			Content: fmt.Sprintf("[%s] %s: %s", msg.Role, msg.UserID, msg.Text),
		})
	}

	return messages
}

func (c *Client) complete(ctx context.Context, messages []completionMessage) (string, error) {
	requestBody := completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making API request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %v", err)
	}

	if completion.Error != nil {
		return "", fmt.Errorf("API error: %s", completion.Error.Message)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response generated")
	}

	return completion.Choices[0].Message.Content, nil
}
