package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/logan/usecasehub/internal/agent"
	"github.com/logan/usecasehub/internal/restclient"
)

// Endpoint is the remote agent.
type Endpoint interface {
	Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
}

// Classifier decides whether a turn changed persisted state.
type Classifier interface {
	AnyMutating(names []string) bool
}

// Trigger is notified once for every turn that ran a mutating tool.
type Trigger interface {
	Trigger() uint64
}

// Turn describes the outcome of one Send.
type Turn struct {
	User      Message
	Assistant Message
	ToolCalls []string
	Refreshed bool
	// Err is the transport failure, if the exchange failed. It is already
	// reflected in Assistant.Text.
	Err error
}

// Coordinator runs the send round trip for one chat session. At most one
// send is in flight at a time.
type Coordinator struct {
	store      *Store
	endpoint   Endpoint
	classifier Classifier
	refresh    Trigger
	logger     *slog.Logger

	sending atomic.Bool
}

// NewCoordinator wires a coordinator around an initialised Store.
func NewCoordinator(store *Store, endpoint Endpoint, classifier Classifier, refresh Trigger, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:      store,
		endpoint:   endpoint,
		classifier: classifier,
		refresh:    refresh,
		logger:     logger,
	}
}

// Store returns the session store the coordinator writes to.
func (c *Coordinator) Store() *Store {
	return c.store
}

// Sending reports whether a send is in flight.
func (c *Coordinator) Sending() bool {
	return c.sending.Load()
}

// Send delivers userText to the agent and records both sides of the
// exchange in the transcript. Validation failures and ErrSendInFlight are
// returned without touching any state. Agent failures are not returned;
// they become an assistant message starting with "Error: ".
func (c *Coordinator) Send(ctx context.Context, userText string) (*Turn, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !c.sending.CompareAndSwap(false, true) {
		return nil, ErrSendInFlight
	}
	defer c.sending.Store(false)

	sessionID := c.store.SessionID()
	req := agent.ChatRequest{Message: text, SessionID: sessionID}

	visible := text
	if att := c.store.takeAttachment(); att != nil {
		req.FileContent = att.Content
		req.FileName = att.Name
		visible = text + "\n" + attachmentMarker(att.Name)
	}

	turn := &Turn{User: Message{Role: RoleUser, Text: visible}}
	c.append(ctx, turn.User)

	resp, err := c.endpoint.Chat(ctx, req)
	if err != nil {
		c.logger.Warn("agent exchange failed", "session_id", sessionID, "error", err)
		turn.Err = err
		turn.Assistant = Message{Role: RoleAssistant, Text: "Error: " + restclient.Reason(err)}
		c.append(ctx, turn.Assistant)
		return turn, nil
	}

	if resp.SessionID != "" && resp.SessionID != sessionID {
		c.logger.Warn("agent echoed a different session id",
			"session_id", sessionID, "echoed", resp.SessionID)
	}

	turn.ToolCalls = append([]string(nil), resp.ToolCallsMade...)
	turn.Assistant = Message{Role: RoleAssistant, Text: resp.Reply}
	if len(turn.ToolCalls) > 0 {
		turn.Assistant.ToolCalls = turn.ToolCalls
	}
	c.append(ctx, turn.Assistant)

	if c.classifier.AnyMutating(turn.ToolCalls) {
		epoch := c.refresh.Trigger()
		turn.Refreshed = true
		c.logger.Debug("refresh triggered", "session_id", sessionID, "epoch", epoch, "tools", turn.ToolCalls)
	}
	return turn, nil
}

func (c *Coordinator) append(ctx context.Context, msg Message) {
	if err := c.store.Append(ctx, msg); err != nil {
		c.logger.Error("persist chat message", "session_id", c.store.SessionID(), "error", err)
	}
}
