// Package chat drives the optimistic message lifecycle of one
// conversation: it validates a query, extracts attachment text,
// submits the composed query to the backend, and reconciles the local
// transcript with the reply or the failure.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gidvion/internal/domain"
	"gidvion/internal/fileproc"
	"gidvion/internal/model"
	"gidvion/internal/session"
)

// A user may resend a failed message this many times before the
// session refuses further attempts.
const maxSendRetries = 3

// contextWindow is how many trailing messages are folded into the
// previous_context field of an outgoing query.
const contextWindow = 6

// Querier is the one backend call this package needs. *api.Client
// satisfies it.
type Querier interface {
	Query(ctx context.Context, route string, req domain.QueryRequest) (*domain.QueryResponse, error)
}

type Config struct {
	API            Querier
	Models         *model.Registry
	Store          session.Store
	Files          *fileproc.Processor
	Logger         *slog.Logger
	ConversationID string

	// SentDelay is how long after submission a message is shown as
	// sent. Zero means advance immediately.
	SentDelay time.Duration
}

// Session owns the ordered transcript of one conversation. All methods
// are safe for concurrent use.
type Session struct {
	api    Querier
	models *model.Registry
	store  session.Store
	files  *fileproc.Processor
	logger *slog.Logger

	conversationID string
	sentDelay      time.Duration

	mu          sync.Mutex
	order       []string
	byID        map[string]*domain.Message
	modelID     string
	emotion     string
	webSearch   bool
	backendDown bool
}

func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		api:            cfg.API,
		models:         cfg.Models,
		store:          cfg.Store,
		files:          cfg.Files,
		logger:         logger,
		conversationID: cfg.ConversationID,
		sentDelay:      cfg.SentDelay,
		byID:           make(map[string]*domain.Message),
	}
	if cfg.Store != nil {
		s.modelID = cfg.Store.SelectedModel()
	}
	return s
}

// SetModel selects the model for subsequent sends. The identifier must
// resolve in the registry; the choice is persisted for the next run.
func (s *Session) SetModel(ctx context.Context, id string) error {
	if _, err := s.models.Lookup(id); err != nil {
		return err
	}
	s.mu.Lock()
	s.modelID = id
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.SetSelectedModel(ctx, id); err != nil {
			s.logger.Warn("cannot persist model selection", "error", err)
		}
	}
	return nil
}

func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelID
}

// SupportedModels lists the selectable model identifiers.
func (s *Session) SupportedModels() []string {
	return s.models.IDs()
}

func (s *Session) SetEmotion(emotion string) {
	s.mu.Lock()
	s.emotion = emotion
	s.mu.Unlock()
}

func (s *Session) SetWebSearch(on bool) {
	s.mu.Lock()
	s.webSearch = on
	s.mu.Unlock()
}

// SetBackendAvailable opens or closes the send gate. While the backend
// is reported down, sends are refused up front instead of timing out
// one by one; the health poller drives this.
func (s *Session) SetBackendAvailable(up bool) {
	s.mu.Lock()
	s.backendDown = !up
	s.mu.Unlock()
}

func (s *Session) checkBackend() error {
	s.mu.Lock()
	down := s.backendDown
	s.mu.Unlock()
	if down {
		return fmt.Errorf("backend unavailable: %w", domain.ErrNetwork)
	}
	return nil
}

// Send validates and submits a query. The user message is appended
// optimistically before any network I/O; the returned message is the
// assistant reply. On failure the user message is marked error, a
// synthetic assistant error message is appended, and the error is
// returned for the caller to surface.
func (s *Session) Send(ctx context.Context, text string, files []domain.UploadFile) (*domain.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyQuery
	}
	if err := s.checkBackend(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	modelID := s.modelID
	emotion := s.emotion
	webSearch := s.webSearch
	s.mu.Unlock()

	entry, err := s.models.Lookup(modelID)
	if err != nil {
		return nil, err
	}

	apiKey, err := s.providerKey(entry)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	userMsg := &domain.Message{
		ID:          uuid.NewString(),
		Content:     trimmed,
		Sender:      domain.SenderUser,
		Model:       modelID,
		Emotion:     emotion,
		Attachments: names,
		Timestamp:   time.Now(),
		Status:      domain.StatusSending,
	}
	s.append(userMsg)
	s.scheduleSent(userMsg.ID)

	query := trimmed
	if len(files) > 0 {
		processed := s.files.ProcessAll(ctx, files)
		if digest := fileproc.FormatProcessedFiles(processed); digest != "" {
			query = trimmed + "\n\n" + digest
		}
	}

	return s.submit(ctx, userMsg.ID, entry, domain.QueryRequest{
		Query:           query,
		PreviousContext: s.previousContext(userMsg.ID),
		Emotion:         emotion,
		WebSearch:       webSearch,
		ConversationID:  s.conversationID,
		APIKey:          apiKey,
	})
}

// Retry resends a failed user message. The attempt count is capped;
// attachments are not re-extracted because the composed query of the
// original attempt already carries their text.
func (s *Session) Retry(ctx context.Context, id string) (*domain.Message, error) {
	if err := s.checkBackend(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	msg, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("no message %s", id)
	}
	if msg.Sender != domain.SenderUser || msg.Status != domain.StatusError {
		s.mu.Unlock()
		return nil, fmt.Errorf("message %s is not a failed user message", id)
	}
	if msg.Retries >= maxSendRetries {
		s.mu.Unlock()
		return nil, fmt.Errorf("message %s already retried %d times", id, maxSendRetries)
	}
	msg.Retries++
	// A retry opens a fresh delivery attempt, the one place status is
	// allowed to rewind.
	msg.Status = domain.StatusSending
	msg.Err = ""
	modelID := msg.Model
	emotion := msg.Emotion
	webSearch := s.webSearch
	content := msg.Content
	s.mu.Unlock()

	entry, err := s.models.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.providerKey(entry)
	if err != nil {
		return nil, err
	}
	s.scheduleSent(id)

	return s.submit(ctx, id, entry, domain.QueryRequest{
		Query:           content,
		PreviousContext: s.previousContext(id),
		Emotion:         emotion,
		WebSearch:       webSearch,
		ConversationID:  s.conversationID,
		APIKey:          apiKey,
	})
}

// providerKey resolves the user-supplied key a provider demands. With
// no store configured there is nowhere a key could live, so that case
// reads the same as a missing key.
func (s *Session) providerKey(entry model.Entry) (string, error) {
	if !entry.RequiresKey() {
		return "", nil
	}
	if s.store == nil {
		return "", fmt.Errorf("%s: %w", entry.Provider, domain.ErrAPIKeyRequired)
	}
	key, ok := s.store.APIKey(string(entry.Provider))
	if !ok {
		return "", fmt.Errorf("%s: %w", entry.Provider, domain.ErrAPIKeyRequired)
	}
	return key, nil
}

func (s *Session) submit(ctx context.Context, userID string, entry model.Entry, req domain.QueryRequest) (*domain.Message, error) {
	resp, err := s.api.Query(ctx, entry.Route, req)
	if err != nil {
		s.failMessage(userID, err)
		return nil, err
	}

	s.advance(userID, domain.StatusSent)
	s.advance(userID, domain.StatusDelivered)

	reply := &domain.Message{
		ID:        uuid.NewString(),
		Content:   resp.Response,
		Sender:    domain.SenderAssistant,
		Model:     resp.Model,
		Timestamp: time.Now(),
		Status:    domain.StatusDelivered,
		QueryID:   resp.QueryID,
	}
	s.append(reply)
	s.persist(ctx)
	return reply, nil
}

// failMessage marks the user message as failed and appends the paired
// synthetic assistant error message so the failure is visible inline.
func (s *Session) failMessage(userID string, cause error) {
	human := HumanError(cause)

	s.mu.Lock()
	if msg, ok := s.byID[userID]; ok {
		msg.Status = domain.StatusError
		msg.Err = human
	}
	s.mu.Unlock()

	s.append(&domain.Message{
		ID:        uuid.NewString(),
		Content:   human,
		Sender:    domain.SenderAssistant,
		Timestamp: time.Now(),
		Status:    domain.StatusError,
		Err:       human,
	})
}

// MarkRead records that the user has seen a delivered message.
func (s *Session) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("no message %s", id)
	}
	return msg.Advance(domain.StatusRead)
}

// React toggles a thumbs reaction on a message.
func (s *Session) React(id string, thumbsUp bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("no message %s", id)
	}
	if thumbsUp {
		msg.Reactions.ThumbsUp = !msg.Reactions.ThumbsUp
	} else {
		msg.Reactions.ThumbsDown = !msg.Reactions.ThumbsDown
	}
	return nil
}

// Messages returns a snapshot of the transcript in insertion order.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Clear wipes the whole transcript. Individual messages are never
// deleted on their own.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	s.order = nil
	s.byID = make(map[string]*domain.Message)
	s.mu.Unlock()
	if s.store != nil && s.conversationID != "" {
		if err := s.store.DropTranscript(ctx, s.conversationID); err != nil {
			s.logger.Warn("cannot drop cached transcript", "error", err)
		}
	}
}

// LoadHistory replaces the transcript with the locally cached one.
func (s *Session) LoadHistory(ctx context.Context) error {
	if s.store == nil || s.conversationID == "" {
		return nil
	}
	msgs, err := s.store.LoadTranscript(ctx, s.conversationID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.byID = make(map[string]*domain.Message)
	for i := range msgs {
		m := msgs[i]
		s.order = append(s.order, m.ID)
		s.byID[m.ID] = &m
	}
	return nil
}

func (s *Session) append(m *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, m.ID)
	s.byID[m.ID] = m
}

// advance moves a message forward, quietly skipping states the round
// trip already passed (the sent timer and the response can race).
func (s *Session) advance(id string, next domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[id]
	if !ok || !msg.Status.CanAdvance(next) {
		return
	}
	msg.Status = next
}

// scheduleSent flips a sending message to sent after the configured
// delay, unless the round trip already moved it further.
func (s *Session) scheduleSent(id string) {
	if s.sentDelay <= 0 {
		s.advance(id, domain.StatusSent)
		return
	}
	time.AfterFunc(s.sentDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if msg, ok := s.byID[id]; ok && msg.Status == domain.StatusSending {
			msg.Status = domain.StatusSent
		}
	})
}

// previousContext folds the trailing transcript into a single string
// for the backend, excluding the message being sent.
func (s *Session) previousContext(excludeID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, id := range s.order {
		if id == excludeID {
			continue
		}
		m := s.byID[id]
		if m.Status == domain.StatusError || m.Content == "" {
			continue
		}
		lines = append(lines, string(m.Sender)+": "+m.Content)
	}
	if len(lines) > contextWindow {
		lines = lines[len(lines)-contextWindow:]
	}
	return strings.Join(lines, "\n")
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil || s.conversationID == "" {
		return
	}
	if err := s.store.SaveTranscript(ctx, s.conversationID, s.Messages()); err != nil {
		s.logger.Warn("cannot cache transcript", "error", err)
	}
}

// HumanError maps the domain error taxonomy to the messages shown in
// the transcript.
func HumanError(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "The request timed out. The model may be overloaded; try again."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many requests. Wait a moment before sending again."
	case errors.Is(err, domain.ErrServer):
		return "The server hit an error. Retry in a little while."
	case errors.Is(err, domain.ErrNetwork):
		return "Cannot reach the backend. Check your connection."
	case errors.Is(err, domain.ErrUnauthorized):
		return "Your session expired. Log in again."
	default:
		return err.Error()
	}
}
