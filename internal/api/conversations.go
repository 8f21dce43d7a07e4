package api

import (
	"context"
	"net/http"

	"gidvion/internal/domain"
)

// Conversations lists the caller's durable chat threads.
func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation opens a new thread bound to a model.
func (c *Client) CreateConversation(ctx context.Context, name, model string) (*domain.Conversation, error) {
	in := struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	}{Name: name, Model: model}

	var out domain.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/conversations/new", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a thread server-side.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/conversations/"+id, nil, nil)
}

// ConversationMessages returns the persisted transcript of a thread.
func (c *Client) ConversationMessages(ctx context.Context, id string) ([]domain.ConversationMessage, error) {
	var out []domain.ConversationMessage
	if err := c.doJSON(ctx, http.MethodGet, "/conversations/"+id+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
