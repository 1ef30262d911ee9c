package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andrescamacho/dispatch-go/internal/application/agent"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// Client implements agent.ChatClient against an OpenAI-compatible
// chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a chat-completions client from configuration
func NewClient(cfg *config.LMConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the model's reply
func (c *Client) Complete(ctx context.Context, messages []agent.ChatMessage, tools []agent.ToolSpec) (*agent.ChatMessage, error) {
	reqBody := completionRequest{
		Model:    c.model,
		Messages: toWireMessages(messages),
		Tools:    toWireTools(tools),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewUpstreamError("language model unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewUpstreamError("failed to read completion response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, shared.NewUpstreamError(
			fmt.Sprintf("language model returned %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, shared.NewUpstreamError("failed to decode completion response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, shared.NewUpstreamError("completion returned no choices", nil)
	}

	return fromWireMessage(parsed.Choices[0].Message), nil
}

func toWireMessages(messages []agent.ChatMessage) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		out[i] = wm
	}
	return out
}

func toWireTools(tools []agent.ToolSpec) []wireTool {
	out := make([]wireTool, len(tools))
	for i, t := range tools {
		wt := wireTool{Type: "function"}
		wt.Function.Name = t.Name
		wt.Function.Description = t.Description
		wt.Function.Parameters = t.Parameters
		out[i] = wt
	}
	return out
}

func fromWireMessage(m wireMessage) *agent.ChatMessage {
	msg := &agent.ChatMessage{
		Role:    m.Role,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
