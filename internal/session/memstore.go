package session

import (
	"context"
	"strings"
	"sync"

	"gidvion/internal/domain"
)

// MemoryStore is an in-memory Store. Nothing survives the process; it
// backs --no-persist runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	tokenType   string
	token       string
	apiKeys     map[string]string
	model       string
	transcripts map[string][]domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apiKeys:     make(map[string]string),
		transcripts: make(map[string][]domain.Message),
	}
}

func (s *MemoryStore) AuthToken() (string, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", "", false
	}
	tokenType := s.tokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType, s.token, true
}

func (s *MemoryStore) SetAuthToken(_ context.Context, tokenType, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenType, s.token = tokenType, token
	return nil
}

func (s *MemoryStore) ClearAuth(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenType, s.token = "", ""
	return nil
}

func (s *MemoryStore) APIKey(provider string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.apiKeys[strings.ToLower(provider)]
	return key, ok && key != ""
}

func (s *MemoryStore) SetAPIKey(_ context.Context, provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeys[strings.ToLower(provider)] = key
	return nil
}

func (s *MemoryStore) SelectedModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *MemoryStore) SetSelectedModel(_ context.Context, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	return nil
}

func (s *MemoryStore) SaveTranscript(_ context.Context, conversationID string, msgs []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]domain.Message, len(msgs))
	copy(cp, msgs)
	s.transcripts[conversationID] = cp
	return nil
}

func (s *MemoryStore) LoadTranscript(_ context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.transcripts[conversationID]
	cp := make([]domain.Message, len(msgs))
	copy(cp, msgs)
	return cp, nil
}

func (s *MemoryStore) DropTranscript(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, conversationID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
