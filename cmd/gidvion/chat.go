package main

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gidvion/internal/api"
	"gidvion/internal/chat"
	"gidvion/internal/config"
	"gidvion/internal/domain"
	"gidvion/internal/model"
	"gidvion/internal/session"
)

func chatCmd() *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(conversationID)
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "resume a conversation by id")
	return cmd
}

func runChat(conversationID string) error {
	cfg := loadConfig()
	setupLogger(cfg)
	startMetrics(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := newAPIClient(cfg, store)
	processor := newProcessor(cfg, client)

	registry := model.NewRegistry()
	if err := registry.LoadCatalog(config.DefaultConfigDir(), logger); err != nil {
		logger.Warn("model catalog not loaded", "err", err)
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	sess := chat.New(chat.Config{
		API:            client,
		Models:         registry,
		Store:          store,
		Files:          processor,
		Logger:         logger,
		ConversationID: conversationID,
		SentDelay:      300 * time.Millisecond,
	})
	if err := sess.LoadHistory(ctx); err != nil {
		logger.Warn("cannot load cached transcript", "err", err)
	}

	if sess.Model() == "" {
		if err := sess.SetModel(ctx, registry.IDs()[0]); err != nil {
			return err
		}
	}

	// Surface backend availability changes without blocking the REPL.
	// While the backend is down the session refuses new sends up front.
	interval := time.Duration(cfg.Backend.HealthIntervalSeconds) * time.Second
	poller := api.NewHealthPoller(client, interval, func(healthy bool) {
		sess.SetBackendAvailable(healthy)
		if healthy {
			fmt.Fprintln(os.Stderr, "[backend is reachable, sending enabled]")
		} else {
			fmt.Fprintln(os.Stderr, "[backend is unreachable, sending disabled]")
		}
	}, logger)
	go poller.Start(ctx)

	fmt.Printf("Gidvion %s. Model: %s. Type /help for commands.\n", version, sess.Model())

	var pending []domain.UploadFile
	var lastFailedID string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlash(ctx, sess, store, &pending, &lastFailedID, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			if quit {
				return nil
			}
			continue
		}

		reply, err := sess.Send(ctx, line, pending)
		pending = nil
		if err != nil {
			lastFailedID = lastUserMessageID(sess)
			fmt.Fprintln(os.Stderr, chat.HumanError(err))
			continue
		}
		lastFailedID = ""
		printReply(sess, reply)
	}
}

func handleSlash(ctx context.Context, sess *chat.Session, store session.Store, pending *[]domain.UploadFile, lastFailedID *string, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`/model <id>        switch model
/models            list models
/key <provider> <key>  store an API key
/emotion <tag>     set the emotion tag (or "-" to clear)
/websearch on|off  toggle web search
/attach <path>     attach a file to the next message
/retry             resend the last failed message
/clear             wipe the transcript
/history           print the transcript
/quit              exit`)
	case "/model":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /model <id>")
		}
		if err := sess.SetModel(ctx, fields[1]); err != nil {
			return false, err
		}
		fmt.Println("model:", fields[1])
	case "/models":
		for _, m := range sess.SupportedModels() {
			fmt.Println(" ", m)
		}
	case "/key":
		if len(fields) < 3 {
			return false, fmt.Errorf("usage: /key <provider> <key>")
		}
		if err := store.SetAPIKey(ctx, fields[1], fields[2]); err != nil {
			return false, err
		}
		fmt.Println("stored key for", fields[1])
	case "/emotion":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /emotion <tag>")
		}
		tag := fields[1]
		if tag == "-" {
			tag = ""
		}
		sess.SetEmotion(tag)
	case "/websearch":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /websearch on|off")
		}
		sess.SetWebSearch(fields[1] == "on")
	case "/attach":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /attach <path>")
		}
		f, err := readUpload(strings.Join(fields[1:], " "))
		if err != nil {
			return false, err
		}
		*pending = append(*pending, f)
		fmt.Printf("attached %s (%d bytes)\n", f.Name, f.Size())
	case "/retry":
		if *lastFailedID == "" {
			return false, fmt.Errorf("nothing to retry")
		}
		reply, err := sess.Retry(ctx, *lastFailedID)
		if err != nil {
			return false, err
		}
		*lastFailedID = ""
		printReply(sess, reply)
	case "/clear":
		sess.Clear(ctx)
		fmt.Println("transcript cleared")
	case "/history":
		for _, m := range sess.Messages() {
			marker := ""
			if m.Status == domain.StatusError {
				marker = " [failed]"
			}
			fmt.Printf("%s%s: %s\n", m.Sender, marker, m.Content)
		}
	case "/quit", "/exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

func printReply(sess *chat.Session, reply *domain.Message) {
	fmt.Println(reply.Content)
	if err := sess.MarkRead(reply.ID); err != nil {
		logger.Debug("mark read", "err", err)
	}
}

func lastUserMessageID(sess *chat.Session) string {
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender == domain.SenderUser {
			return msgs[i].ID
		}
	}
	return ""
}

// readUpload loads a file from disk with its MIME type derived from
// the extension, the same way a browser fills in File.type. An unknown
// extension leaves the type empty; classification falls back to the
// extension anyway.
func readUpload(path string) (domain.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadFile{}, err
	}
	return domain.UploadFile{
		Name: filepath.Base(path),
		Type: mime.TypeByExtension(filepath.Ext(path)),
		Data: data,
	}, nil
}
