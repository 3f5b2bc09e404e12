package store

import (
	"context"

	"github.com/matheus3301/parley/internal/model"
)

// InsertMessage appends a message. The id must be unique.
func (db *DB) InsertMessage(ctx context.Context, m *model.Message) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, text, sender_id, sender_name, sender_email, receiver_id, type, read, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.Text, m.SenderID, m.SenderName, m.SenderEmail, m.ReceiverID,
		string(m.Type), m.Read, millis(m.Timestamp))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// ListMessages returns every message of a chat, oldest first. Messages sharing
// a timestamp keep insertion order.
func (db *DB) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, chat_id, text, sender_id, sender_name, sender_email, receiver_id, type, read, timestamp
		FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp ASC, seq ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		var (
			m       model.Message
			msgType string
			ts      int64
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Text, &m.SenderID, &m.SenderName, &m.SenderEmail,
			&m.ReceiverID, &msgType, &m.Read, &ts); err != nil {
			return nil, err
		}
		m.Type = model.MessageType(msgType)
		m.Timestamp = fromMillis(ts)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Count returns the number of rows in the main collections.
func (db *DB) Count(ctx context.Context) (*Counts, error) {
	var c Counts
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_online = 1),
			(SELECT COUNT(*) FROM chats),
			(SELECT COUNT(*) FROM messages)`).
		Scan(&c.Users, &c.Online, &c.Chats, &c.Messages)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
