package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/storage"
)

func TestStateJanitor_PurgesExpiredState(t *testing.T) {
	store, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "1/tab-a:chat_session_id", "s-1-abcdef"); err != nil {
		t.Fatalf("set: %v", err)
	}

	j := NewStateJanitor(store, slog.Default(), time.Minute, time.Hour)

	if n := j.PurgeOnce(ctx, time.Now()); n != 0 {
		t.Errorf("purged %d fresh keys", n)
	}
	if n := j.PurgeOnce(ctx, time.Now().Add(2*time.Hour)); n != 1 {
		t.Errorf("purged %d keys, want 1", n)
	}
	if _, ok, _ := store.Get(ctx, "1/tab-a:chat_session_id"); ok {
		t.Error("expired key still present")
	}
}

func TestStateJanitor_KeepsLongLivedTab(t *testing.T) {
	store, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	tab := storage.Scope(store, "1/tab-a")
	sessions := chat.NewStore(tab)
	if err := sessions.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	id := sessions.SessionID()

	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)
	if err := sessions.Append(ctx, chat.Message{Role: chat.RoleUser, Text: "still here"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	j := NewStateJanitor(store, slog.Default(), time.Minute, time.Hour)
	if n := j.PurgeOnce(ctx, cutoff.Add(time.Hour)); n != 0 {
		t.Errorf("purged %d keys of an active tab", n)
	}

	reloaded := chat.NewStore(tab)
	if err := reloaded.Init(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.SessionID() != id {
		t.Errorf("session id = %q, want %q", reloaded.SessionID(), id)
	}
	if got := len(reloaded.Transcript()); got != 1 {
		t.Errorf("transcript has %d messages, want 1", got)
	}
}

type countingPurger struct {
	calls chan time.Time
}

func (p *countingPurger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	select {
	case p.calls <- cutoff:
	default:
	}
	return 0, nil
}

func TestStateJanitor_RunsOnInterval(t *testing.T) {
	p := &countingPurger{calls: make(chan time.Time, 4)}
	j := NewStateJanitor(p, slog.Default(), 10*time.Millisecond, time.Hour)
	j.Start()
	defer j.Stop()

	select {
	case cutoff := <-p.calls:
		if time.Since(cutoff) < time.Hour {
			t.Errorf("cutoff %v is not an hour in the past", cutoff)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor never ran")
	}
}
