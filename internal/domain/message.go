package domain

import (
	"fmt"
	"time"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Status is the delivery state of an optimistic message. It only moves
// forward along sending, sent, delivered, read; StatusError is reachable
// from any state and is terminal.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusError     Status = "error"
)

var statusRank = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// CanAdvance reports whether a transition from s to next is legal.
func (s Status) CanAdvance(next Status) bool {
	if s == StatusError {
		return false
	}
	if next == StatusError {
		return true
	}
	from, ok1 := statusRank[s]
	to, ok2 := statusRank[next]
	return ok1 && ok2 && to > from
}

// Message is one chat turn held in client-side session state.
type Message struct {
	ID          string
	Content     string
	Sender      Sender
	Model       string
	Emotion     string
	Attachments []string // filenames of attached uploads
	Timestamp   time.Time
	Reactions   Reactions
	Status      Status
	QueryID     string
	Err         string // set when Status is StatusError
	Retries     int
}

type Reactions struct {
	ThumbsUp   bool
	ThumbsDown bool
}

// Advance moves the message to next, rejecting any backward transition.
func (m *Message) Advance(next Status) error {
	if !m.Status.CanAdvance(next) {
		return fmt.Errorf("illegal status transition %s -> %s for message %s", m.Status, next, m.ID)
	}
	m.Status = next
	return nil
}
