// Package agent talks to the remote conversational agent that executes
// use-case tools on behalf of a chat session.
package agent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/logan/usecasehub/internal/restclient"
	"github.com/logan/usecasehub/internal/tools"
)

// ChatRequest is one user turn sent to the agent.
type ChatRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id"`
	FileContent string `json:"file_content,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

// ChatResponse is the agent's reply to a turn.
type ChatResponse struct {
	Reply         string   `json:"reply"`
	SessionID     string   `json:"session_id"`
	ToolCallsMade []string `json:"tool_calls_made"`
}

// Client is the agent endpoint client.
type Client struct {
	rc *restclient.Client
}

// NewClient creates an agent client. Exchanges have no client-side timeout;
// a turn that runs several tools can take a long time.
func NewClient(baseURL string, opts ...restclient.Option) *Client {
	opts = append([]restclient.Option{restclient.WithTimeout(0)}, opts...)
	return &Client{rc: restclient.New(baseURL, opts...)}
}

// chatReply is the wire form of ChatResponse; a missing reply is malformed.
type chatReply struct {
	Reply         *string  `json:"reply"`
	SessionID     string   `json:"session_id"`
	ToolCallsMade []string `json:"tool_calls_made"`
}

// Chat sends one turn and returns the agent's reply. A success body without
// a reply fails with restclient.ErrMalformedResponse.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var wire *chatReply
	if err := c.rc.Do(ctx, http.MethodPost, "/chat/", req, &wire); err != nil {
		return nil, fmt.Errorf("agent chat: %w", err)
	}
	if wire == nil || wire.Reply == nil {
		return nil, fmt.Errorf("agent chat: %w: no reply", restclient.ErrMalformedResponse)
	}
	return &ChatResponse{
		Reply:         *wire.Reply,
		SessionID:     wire.SessionID,
		ToolCallsMade: wire.ToolCallsMade,
	}, nil
}

// ListTools fetches the agent's tool registry declaration.
func (c *Client) ListTools(ctx context.Context) ([]tools.Declaration, error) {
	var decls []tools.Declaration
	if err := c.rc.Do(ctx, http.MethodGet, "/chat/tools", nil, &decls); err != nil {
		return nil, fmt.Errorf("list agent tools: %w", err)
	}
	return decls, nil
}
