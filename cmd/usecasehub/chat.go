package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/logan/usecasehub/internal/agent"
	"github.com/logan/usecasehub/internal/auth"
	"github.com/logan/usecasehub/internal/chat"
	"github.com/logan/usecasehub/internal/config"
	"github.com/logan/usecasehub/internal/logger"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/storage"
	"github.com/logan/usecasehub/internal/tools"
)

var (
	chatToken     string
	chatStatePath string
	chatTab       string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the use-case agent from the terminal",
	Long: `Start an interactive chat session. The session survives restarts of the
command for the same --tab.

Commands:
  /attach <file.txt>   attach a plain-text file to the next message
  /detach              drop the pending attachment
  /history             print the transcript
  /clear               clear the transcript, keep the session
  /reset               start a new session
  /quit                leave`,
	RunE: runChatCmd,
}

func init() {
	chatCmd.Flags().StringVar(&chatToken, "token", os.Getenv("USECASEHUB_TOKEN"), "access token (default $USECASEHUB_TOKEN)")
	chatCmd.Flags().StringVar(&chatStatePath, "state", defaultStatePath(), "SQLite file holding the chat session")
	chatCmd.Flags().StringVar(&chatTab, "tab", "terminal", "session name; each name is an independent conversation")
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "usecasehub-chat.db"
	}
	return filepath.Join(dir, "usecasehub", "chat.db")
}

func runChatCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if chatToken == "" {
		return fmt.Errorf("an access token is required (--token or USECASEHUB_TOKEN)")
	}

	// Logs must not interleave with the conversation on stdout.
	var log *slog.Logger
	if cfg.Log.File != "" {
		logCfg := cfg.Log
		logCfg.Console = false
		log = logger.New(logCfg)
	} else {
		log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelError}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = auth.WithBearer(ctx, chatToken)

	if err := os.MkdirAll(filepath.Dir(chatStatePath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	db, err := storage.Open(ctx, chatStatePath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := chat.NewStore(storage.Scope(db, "cli/"+chatTab))
	if err := store.Init(ctx); err != nil {
		return err
	}

	agentClient := agent.NewClient(cfg.AgentBaseURL)
	classifier := tools.NewClassifier()
	syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	classifier.Sync(syncCtx, agentClient, log)
	cancel()

	sig := refresh.NewSignal()
	defer sig.Close()

	coord := chat.NewCoordinator(store, agentClient, classifier, sig, log)
	return repl(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), coord, os.ReadFile)
}

// repl reads one line at a time until EOF or /quit.
func repl(ctx context.Context, in io.Reader, out io.Writer, coord *chat.Coordinator, readFile func(string) ([]byte, error)) error {
	store := coord.Store()
	fmt.Fprintf(out, "session %s (%d earlier messages). /quit to leave.\n", store.SessionID(), len(store.Transcript()))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/history":
			for _, m := range store.Transcript() {
				printMessage(out, m)
			}
		case "/clear":
			if err := store.Clear(ctx); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintln(out, "transcript cleared")
		case "/reset":
			if err := store.Reset(ctx); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintf(out, "new session %s\n", store.SessionID())
		case "/detach":
			store.ClearAttachment()
			fmt.Fprintln(out, "attachment removed")
		case "/attach":
			path := strings.TrimSpace(arg)
			if path == "" {
				fmt.Fprintln(out, "! usage: /attach <file.txt>")
				continue
			}
			content, err := readFile(path)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			if err := store.AttachFile(filepath.Base(path), content); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			fmt.Fprintf(out, "attached %s (%d bytes), sent with your next message\n", filepath.Base(path), len(content))
		default:
			turn, err := coord.Send(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			printMessage(out, turn.Assistant)
			if turn.Refreshed {
				fmt.Fprintln(out, "(use cases changed)")
			}
		}
	}
}

func printMessage(out io.Writer, m chat.Message) {
	prefix := "you"
	if m.Role == chat.RoleAssistant {
		prefix = "agent"
	}
	fmt.Fprintf(out, "%s: %s\n", prefix, m.Text)
	if len(m.ToolCalls) > 0 {
		fmt.Fprintf(out, "  [tools: %s]\n", strings.Join(m.ToolCalls, ", "))
	}
}

