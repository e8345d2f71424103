package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logan/usecasehub/internal/storage"
)

// Persisted keys.
const (
	KeySessionID = "chat_session_id"
	KeyMessages  = "chat_messages"
)

// Store holds one tab's chat session and persists it through a storage
// capability. It is safe for concurrent use.
type Store struct {
	backing storage.Store

	mu         sync.Mutex
	sessionID  string
	messages   []Message
	attachment *Attachment
}

// NewStore creates a Store over backing. Call Init before use.
func NewStore(backing storage.Store) *Store {
	return &Store{backing: backing}
}

// NewSessionID returns a fresh id of the form s-<unix ms>-<6 random chars>.
func NewSessionID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return "s-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + random
}

// Init loads the persisted session. A missing session id is generated and
// saved; a missing or unreadable transcript starts empty.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.backing.Get(ctx, KeySessionID)
	if err != nil {
		return fmt.Errorf("load session id: %w", err)
	}
	if !ok || id == "" {
		id = NewSessionID()
		if err := s.backing.Set(ctx, KeySessionID, id); err != nil {
			return fmt.Errorf("save session id: %w", err)
		}
	}
	s.sessionID = id

	s.messages = nil
	raw, ok, err := s.backing.Get(ctx, KeyMessages)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if ok {
		var msgs []Message
		if json.Unmarshal([]byte(raw), &msgs) == nil {
			s.messages = msgs
		}
	}
	return nil
}

// SessionID returns the current session id.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Transcript returns a copy of the messages in chronological order.
func (s *Store) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Append adds msg to the end of the transcript and persists the whole
// transcript. On a storage error the message stays in memory.
func (s *Store) Append(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ToolCalls != nil {
		msg.ToolCalls = append([]string(nil), msg.ToolCalls...)
	}
	s.messages = append(s.messages, msg)

	b, err := json.Marshal(s.messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.backing.Set(ctx, KeyMessages, string(b)); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// Clear empties the transcript and removes it from storage. The session id
// is kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	if err := s.backing.Remove(ctx, KeyMessages); err != nil {
		return fmt.Errorf("remove transcript: %w", err)
	}
	return nil
}

// Reset clears the transcript and pending attachment and starts a new
// session id.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.attachment = nil
	if err := s.backing.Remove(ctx, KeyMessages); err != nil {
		return fmt.Errorf("remove transcript: %w", err)
	}
	s.sessionID = NewSessionID()
	if err := s.backing.Set(ctx, KeySessionID, s.sessionID); err != nil {
		return fmt.Errorf("save session id: %w", err)
	}
	return nil
}

// AttachFile validates a file and makes it the pending attachment,
// replacing any previous one. A rejected file leaves the slot unchanged.
func (s *Store) AttachFile(name string, content []byte) error {
	if err := ValidateAttachment(name, content); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = &Attachment{Name: name, Content: string(content)}
	return nil
}

// ClearAttachment empties the attachment slot.
func (s *Store) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

// PendingAttachment returns the attachment waiting to be sent, if any.
func (s *Store) PendingAttachment() (Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachment == nil {
		return Attachment{}, false
	}
	return *s.attachment, true
}

// takeAttachment empties the slot and returns what was in it.
func (s *Store) takeAttachment() *Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attachment
	s.attachment = nil
	return a
}
