package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logan/usecasehub/internal/agent"
	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/storage"
	"github.com/logan/usecasehub/internal/tools"
)

type replAgent struct {
	requests []agent.ChatRequest
}

func (a *replAgent) Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	a.requests = append(a.requests, req)
	if strings.Contains(req.Message, "archive") {
		return &agent.ChatResponse{Reply: "Archived use case 7.", ToolCallsMade: []string{tools.GetUseCase, tools.ArchiveUseCase}}, nil
	}
	return &agent.ChatResponse{Reply: "There are 3 use cases.", ToolCallsMade: []string{tools.ListUseCases}}, nil
}

func setupRepl(t *testing.T) (*chat.Coordinator, *replAgent, *refresh.Signal) {
	t.Helper()
	store := chat.NewStore(storage.NewMemory())
	require.NoError(t, store.Init(context.Background()))
	ag := &replAgent{}
	sig := refresh.NewSignal()
	t.Cleanup(sig.Close)
	return chat.NewCoordinator(store, ag, tools.NewClassifier(), sig, nil), ag, sig
}

func TestRepl_Conversation(t *testing.T) {
	coord, ag, sig := setupRepl(t)
	in := strings.NewReader("Which use cases exist?\nplease archive use case 7\n/quit\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), in, &out, coord, os.ReadFile))

	require.Len(t, ag.requests, 2)
	require.Equal(t, uint64(1), sig.Epoch())
	require.Contains(t, out.String(), "agent: There are 3 use cases.")
	require.Contains(t, out.String(), "(use cases changed)")
	require.Len(t, coord.Store().Transcript(), 4)
}

func TestRepl_AttachAndCommands(t *testing.T) {
	coord, ag, _ := setupRepl(t)
	files := map[string][]byte{"notes/call.txt": []byte("we need invoice matching")}
	readFile := func(p string) ([]byte, error) {
		if b, ok := files[p]; ok {
			return b, nil
		}
		return nil, errors.New("no such file")
	}

	id := coord.Store().SessionID()
	in := strings.NewReader(strings.Join([]string{
		"/attach notes/call.txt",
		"analyze this",
		"/attach missing.txt",
		"/clear",
		"/reset",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), in, &out, coord, readFile))

	require.Len(t, ag.requests, 1)
	require.Equal(t, "call.txt", ag.requests[0].FileName)
	require.Equal(t, "we need invoice matching", ag.requests[0].FileContent)
	require.Contains(t, out.String(), "! no such file")
	require.Empty(t, coord.Store().Transcript())
	require.NotEqual(t, id, coord.Store().SessionID())
}
