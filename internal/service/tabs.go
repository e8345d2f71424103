package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/storage"
)

var tabsTracer = otel.Tracer("usecasehub/service/tabs")
var tabsMeter = otel.Meter("usecasehub/service/tabs")

// ErrInvalidTab is returned for a malformed tab id.
var ErrInvalidTab = errors.New("invalid tab id")

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewTabID returns a fresh tab id for clients that do not bring one.
func NewTabID() string {
	return uuid.NewString()
}

// TabState is a snapshot of one tab's chat session.
type TabState struct {
	SessionID  string           `json:"session_id"`
	Messages   []chat.Message   `json:"messages"`
	Sending    bool             `json:"sending"`
	Attachment *chat.Attachment `json:"attachment,omitempty"`
}

// TabService owns one chat coordinator per (user, tab). Coordinators are
// kept in memory while the tab is in use and rebuilt from persisted state
// after they expire.
type TabService struct {
	store      storage.Store
	endpoint   chat.Endpoint
	classifier chat.Classifier
	signal     *refresh.Signal
	logger     *slog.Logger

	mu   sync.Mutex // serialises coordinator creation
	tabs *cache.Cache

	sends     metric.Int64Counter
	failures  metric.Int64Counter
	refreshes metric.Int64Counter
}

// NewTabService creates a TabService. Coordinators unused for idleTTL are
// dropped from memory, never while a send is in flight.
func NewTabService(
	store storage.Store,
	endpoint chat.Endpoint,
	classifier chat.Classifier,
	signal *refresh.Signal,
	logger *slog.Logger,
	idleTTL time.Duration,
) *TabService {
	s := &TabService{
		store:      store,
		endpoint:   endpoint,
		classifier: classifier,
		signal:     signal,
		logger:     logger,
		tabs:       cache.New(idleTTL, idleTTL/2),
	}
	s.tabs.OnEvicted(s.onEvicted)

	s.sends, _ = tabsMeter.Int64Counter("usecasehub.chat.sends",
		metric.WithDescription("Chat messages sent to the agent"))
	s.failures, _ = tabsMeter.Int64Counter("usecasehub.chat.failures",
		metric.WithDescription("Agent exchanges that ended in an error message"))
	s.refreshes, _ = tabsMeter.Int64Counter("usecasehub.refresh.triggers",
		metric.WithDescription("Refresh epochs triggered by mutating tool calls"))
	return s
}

func tabKey(userID int, tabID string) string {
	return fmt.Sprintf("%d/%s", userID, tabID)
}

func (s *TabService) onEvicted(key string, v interface{}) {
	coord := v.(*chat.Coordinator)
	if coord.Sending() {
		s.tabs.Set(key, coord, cache.DefaultExpiration)
		return
	}
	s.logger.Debug("tab evicted", "tab", key)
}

// Tab returns the coordinator for a tab, loading its persisted session on
// first use.
func (s *TabService) Tab(ctx context.Context, userID int, tabID string) (*chat.Coordinator, error) {
	if !tabIDPattern.MatchString(tabID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTab, tabID)
	}
	key := tabKey(userID, tabID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.tabs.Get(key); ok {
		coord := v.(*chat.Coordinator)
		s.tabs.Set(key, coord, cache.DefaultExpiration)
		return coord, nil
	}

	store := chat.NewStore(storage.Scope(s.store, key))
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("load tab %s: %w", key, err)
	}
	coord := chat.NewCoordinator(store, s.endpoint, s.classifier, s.signal, s.logger.With("tab", key))
	s.tabs.Set(key, coord, cache.DefaultExpiration)
	s.logger.Info("tab opened", "tab", key, "session_id", store.SessionID())
	return coord, nil
}

// State returns a snapshot of the tab's session.
func (s *TabService) State(ctx context.Context, userID int, tabID string) (*TabState, error) {
	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		return nil, err
	}
	return stateOf(coord), nil
}

func stateOf(coord *chat.Coordinator) *TabState {
	st := &TabState{
		SessionID: coord.Store().SessionID(),
		Messages:  coord.Store().Transcript(),
		Sending:   coord.Sending(),
	}
	if a, ok := coord.Store().PendingAttachment(); ok {
		st.Attachment = &a
	}
	return st
}

// Send runs one chat round trip for the tab. Cancelling ctx does not
// cancel the agent exchange.
func (s *TabService) Send(ctx context.Context, userID int, tabID, text string) (*chat.Turn, error) {
	ctx, span := tabsTracer.Start(ctx, "tabs.send")
	defer span.End()
	span.SetAttributes(attribute.Int("user_id", userID), attribute.String("tab_id", tabID))

	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The exchange runs to completion even if the caller goes away; the
	// transcript and refresh still record its outcome.
	turn, err := coord.Send(context.WithoutCancel(ctx), text)
	if err != nil {
		return nil, err
	}

	s.sends.Add(ctx, 1)
	span.SetAttributes(
		attribute.StringSlice("tool_calls", turn.ToolCalls),
		attribute.Bool("refreshed", turn.Refreshed),
	)
	if turn.Err != nil {
		s.failures.Add(ctx, 1)
		span.RecordError(turn.Err)
		span.SetStatus(codes.Error, "agent exchange failed")
	}
	if turn.Refreshed {
		s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "chat")))
	}
	return turn, nil
}

// Clear empties the tab's transcript, keeping its session id.
func (s *TabService) Clear(ctx context.Context, userID int, tabID string) error {
	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		return err
	}
	return coord.Store().Clear(ctx)
}

// Reset starts a new session for the tab.
func (s *TabService) Reset(ctx context.Context, userID int, tabID string) (*TabState, error) {
	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		return nil, err
	}
	if coord.Sending() {
		return nil, chat.ErrSendInFlight
	}
	if err := coord.Store().Reset(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("tab session reset", "tab", tabKey(userID, tabID), "session_id", coord.Store().SessionID())
	return stateOf(coord), nil
}

// Attach validates a file and makes it the tab's pending attachment.
func (s *TabService) Attach(ctx context.Context, userID int, tabID, name string, content []byte) (*chat.Attachment, error) {
	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		return nil, err
	}
	if err := coord.Store().AttachFile(name, content); err != nil {
		return nil, err
	}
	a, _ := coord.Store().PendingAttachment()
	return &a, nil
}

// ClearAttachment drops the tab's pending attachment.
func (s *TabService) ClearAttachment(ctx context.Context, userID int, tabID string) error {
	coord, err := s.Tab(ctx, userID, tabID)
	if err != nil {
		return err
	}
	coord.Store().ClearAttachment()
	return nil
}

// NotifyChanged triggers a refresh for a change made outside the chat,
// such as a use-case edit forwarded by the gateway.
func (s *TabService) NotifyChanged(ctx context.Context, source string) uint64 {
	epoch := s.signal.Trigger()
	s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	return epoch
}

// OpenTabs returns the number of coordinators held in memory.
func (s *TabService) OpenTabs() int {
	return s.tabs.ItemCount()
}
