package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gidvion/internal/domain"
)

// SaveTranscript replaces the cached transcript of a conversation with
// the given messages, preserving their order.
func (s *SQLiteStore) SaveTranscript(ctx context.Context, conversationID string, msgs []domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcripts WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}

	for i, m := range msgs {
		attachments, err := json.Marshal(m.Attachments)
		if err != nil {
			return fmt.Errorf("marshal attachments: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transcripts
			 (conversation_id, position, message_id, sender, model, content, emotion, status, query_id, attachments, thumbs_up, thumbs_down, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			conversationID, i, m.ID, string(m.Sender), m.Model, m.Content, m.Emotion,
			string(m.Status), m.QueryID, string(attachments),
			m.Reactions.ThumbsUp, m.Reactions.ThumbsDown, m.Timestamp,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadTranscript returns the cached transcript in insertion order, or
// an empty slice when nothing is cached.
func (s *SQLiteStore) LoadTranscript(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, sender, model, content, emotion, status, query_id, attachments, thumbs_up, thumbs_down, created_at
		 FROM transcripts WHERE conversation_id = ? ORDER BY position`, conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var sender, status string
		var attachments sql.NullString
		if err := rows.Scan(&m.ID, &sender, &m.Model, &m.Content, &m.Emotion,
			&status, &m.QueryID, &attachments,
			&m.Reactions.ThumbsUp, &m.Reactions.ThumbsDown, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Sender = domain.Sender(sender)
		m.Status = domain.Status(status)
		if attachments.Valid && attachments.String != "" && attachments.String != "null" {
			if err := json.Unmarshal([]byte(attachments.String), &m.Attachments); err != nil {
				s.logger.Warn("dropping unreadable attachment list", "message", m.ID, "error", err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) DropTranscript(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE conversation_id = ?`, conversationID)
	return err
}
