package domain

import "time"

// Wire types for the Gidvion backend. Field names follow the backend's
// JSON contract exactly, including its mixed casing.

// QueryRequest is the body of POST /query/{route}.
type QueryRequest struct {
	Query           string `json:"query"`
	PreviousContext string `json:"previous_context"`
	Emotion         string `json:"emotion"`
	WebSearch       bool   `json:"webSearch"`
	ConversationID  string `json:"Conversation_id"`
	APIKey          string `json:"apiKey,omitempty"`
}

// QueryResponse echoes the query and carries the model reply.
type QueryResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Model    string `json:"model"`
	User     string `json:"user"`
	QueryID  string `json:"query_id"`
}

// User is the authenticated account returned by GET /auth/me.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	AuthProvider string `json:"authProvider"`
}

// Conversation is a durable backend-owned chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationMessage is one persisted turn from
// GET /conversations/{id}/messages.
type ConversationMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomInfo describes an ephemeral multi-user room.
type RoomInfo struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Members   int       `json:"members"`
}

// RoomMessage is one frame in a room, both over REST and the websocket.
type RoomMessage struct {
	ID        string    `json:"id,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// FileProcessResponse is the backend's answer to POST /process-file.
type FileProcessResponse struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// BuilderRequest is the fire-and-forget POST /run_project_builder body.
type BuilderRequest struct {
	StackID string `json:"stack_id"`
	Prompt  string `json:"prompt"`
	Email   string `json:"email"`
}
