package chat

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/logan/usecasehub/internal/storage"
)

var sessionIDPattern = regexp.MustCompile(`^s-\d+-[0-9a-f]{6}$`)

func newTestStore(t *testing.T, backing storage.Store) *Store {
	t.Helper()
	s := NewStore(backing)
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestInitGeneratesAndPersistsSessionID(t *testing.T) {
	backing := storage.NewMemory()
	s := newTestStore(t, backing)

	require.Regexp(t, sessionIDPattern, s.SessionID())
	stored, ok, err := backing.Get(context.Background(), KeySessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s.SessionID(), stored)
	require.Empty(t, s.Transcript())
}

func TestInitRecoversPersistedSession(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemory()
	first := newTestStore(t, backing)
	require.NoError(t, first.Append(ctx, Message{Role: RoleUser, Text: "hi"}))
	require.NoError(t, first.Append(ctx, Message{Role: RoleAssistant, Text: "hello", ToolCalls: []string{"list_use_cases"}}))

	reloaded := newTestStore(t, backing)
	require.Equal(t, first.SessionID(), reloaded.SessionID())
	require.Equal(t, first.Transcript(), reloaded.Transcript())
}

func TestInitIgnoresUnreadableTranscript(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemory()
	require.NoError(t, backing.Set(ctx, KeySessionID, "s-1-abcdef"))
	require.NoError(t, backing.Set(ctx, KeyMessages, "{not json"))

	s := newTestStore(t, backing)
	require.Equal(t, "s-1-abcdef", s.SessionID())
	require.Empty(t, s.Transcript())
}

func TestClearThenInitKeepsSessionID(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemory()
	s := newTestStore(t, backing)
	id := s.SessionID()
	require.NoError(t, s.Append(ctx, Message{Role: RoleUser, Text: "one"}))

	require.NoError(t, s.Clear(ctx))
	_, ok, _ := backing.Get(ctx, KeyMessages)
	require.False(t, ok, "transcript must be removed from storage")

	require.NoError(t, s.Init(ctx))
	require.Empty(t, s.Transcript())
	require.Equal(t, id, s.SessionID())
}

func TestResetRegeneratesSessionID(t *testing.T) {
	ctx := context.Background()
	backing := storage.NewMemory()
	s := newTestStore(t, backing)
	id := s.SessionID()
	require.NoError(t, s.Append(ctx, Message{Role: RoleUser, Text: "one"}))
	require.NoError(t, s.AttachFile("notes.txt", []byte("x")))

	require.NoError(t, s.Reset(ctx))
	require.NotEqual(t, id, s.SessionID())
	require.Empty(t, s.Transcript())
	_, pending := s.PendingAttachment()
	require.False(t, pending)

	stored, _, _ := backing.Get(ctx, KeySessionID)
	require.Equal(t, s.SessionID(), stored)
}

func TestTranscriptIsACopy(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	require.NoError(t, s.Append(context.Background(), Message{Role: RoleUser, Text: "a"}))

	got := s.Transcript()
	got[0].Text = "changed"
	require.Equal(t, "a", s.Transcript()[0].Text)
}

func TestAttachmentValidation(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int
		wantErr bool
	}{
		{"empty file", "a.txt", 0, true},
		{"too large", "a.txt", 600_000, true},
		{"at the ceiling", "a.txt", MaxAttachmentBytes, false},
		{"just over the ceiling", "a.txt", MaxAttachmentBytes + 1, true},
		{"typical transcript", "meeting.txt", 400_000, false},
		{"upper case extension", "MEETING.TXT", 10, false},
		{"wrong extension", "meeting.pdf", 10, true},
		{"no extension", "meeting", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, storage.NewMemory())
			err := s.AttachFile(tt.file, []byte(strings.Repeat("a", tt.size)))
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrValidation)
				_, pending := s.PendingAttachment()
				require.False(t, pending)
				return
			}
			require.NoError(t, err)
			a, pending := s.PendingAttachment()
			require.True(t, pending)
			require.Equal(t, tt.size, a.Size(), "content must not be truncated")
		})
	}
}

func TestAttachmentRejectsBinary(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	err := s.AttachFile("blob.txt", []byte{0xff, 0xfe, 0x00})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "file", verr.Field)
}

func TestAttachReplacesPending(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	require.NoError(t, s.AttachFile("first.txt", []byte("1")))
	require.NoError(t, s.AttachFile("second.txt", []byte("2")))

	a, ok := s.PendingAttachment()
	require.True(t, ok)
	assert.Equal(t, "second.txt", a.Name)

	// rejected file keeps the previous one
	require.Error(t, s.AttachFile("third.pdf", []byte("3")))
	a, _ = s.PendingAttachment()
	assert.Equal(t, "second.txt", a.Name)

	s.ClearAttachment()
	_, ok = s.PendingAttachment()
	assert.False(t, ok)
}

func TestAppendPreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		texts := rapid.SliceOf(rapid.StringMatching(`[a-z ]{1,12}`)).Draw(t, "texts")
		ctx := context.Background()
		backing := storage.NewMemory()
		s := NewStore(backing)
		if err := s.Init(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}
		for i, text := range texts {
			role := RoleUser
			if i%2 == 1 {
				role = RoleAssistant
			}
			if err := s.Append(ctx, Message{Role: role, Text: text}); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		reloaded := NewStore(backing)
		if err := reloaded.Init(ctx); err != nil {
			t.Fatalf("reload: %v", err)
		}
		got := reloaded.Transcript()
		if len(got) != len(texts) {
			t.Fatalf("got %d messages, want %d", len(got), len(texts))
		}
		for i, text := range texts {
			if got[i].Text != text {
				t.Fatalf("message %d = %q, want %q", i, got[i].Text, text)
			}
		}
	})
}
