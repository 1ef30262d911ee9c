package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/application/agent"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.LMConfig{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: 2 * time.Second,
	})
}

func TestCompleteDecodesToolCalls(t *testing.T) {
	// Arrange: the endpoint answers with one tool call
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{
			"role": "assistant",
			"content": "",
			"tool_calls": [{"id": "call-1", "type": "function",
				"function": {"name": "process_batch_assignments", "arguments": "{\"limit\":5}"}}]
		}}]}`)
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	// Act
	reply, err := client.Complete(context.Background(),
		[]agent.ChatMessage{{Role: "user", Content: "optimize area-1"}},
		[]agent.ToolSpec{{Name: "process_batch_assignments", Parameters: map[string]any{"type": "object"}}})

	// Assert
	require.NoError(t, err)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "call-1", reply.ToolCalls[0].ID)
	assert.Equal(t, "process_batch_assignments", reply.ToolCalls[0].Name)
	assert.Equal(t, `{"limit":5}`, reply.ToolCalls[0].Arguments)

	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	tools := gotBody["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "function", tools[0].(map[string]any)["type"])
}

func TestCompletePlainReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"SKIP_PHASE_1"}}]}`)
	}))
	defer server.Close()
	client := newTestClient(server.URL)

	reply, err := client.Complete(context.Background(), []agent.ChatMessage{{Role: "user", Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "SKIP_PHASE_1", reply.Content)
	assert.Empty(t, reply.ToolCalls)
}

func TestCompleteUpstreamFailures(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(context.Background(), nil, nil)
		assert.True(t, shared.IsKind(err, shared.KindUpstream))
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Complete(context.Background(), nil, nil)
		assert.True(t, shared.IsKind(err, shared.KindUpstream))
	})
}
