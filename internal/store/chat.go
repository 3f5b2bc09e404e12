package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matheus3301/parley/internal/model"
)

const chatColumns = `c.id, c.participants, c.participant_names, c.last_message, c.last_message_time,
	c.last_message_sender, c.unread_count, c.typing_user_id, c.typing_state, c.updated_at`

func scanChat(r rowScanner) (*model.Chat, error) {
	var (
		c                   model.Chat
		participants, names string
		lastTime, updated   int64
		typingUser          sql.NullString
		typingState         sql.NullBool
	)
	if err := r.Scan(&c.ID, &participants, &names, &c.LastMessage, &lastTime,
		&c.LastMessageSender, &c.UnreadCount, &typingUser, &typingState, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participants), &c.ParticipantIDs); err != nil {
		return nil, fmt.Errorf("decode participants of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(names), &c.ParticipantNames); err != nil {
		return nil, fmt.Errorf("decode participant names of %s: %w", c.ID, err)
	}
	c.LastMessageTime = fromMillis(lastTime)
	c.UpdatedAt = fromMillis(updated)
	if typingUser.Valid || typingState.Valid {
		c.Typing = &model.Typing{UserID: typingUser.String, State: typingState.Bool}
	}
	return &c, nil
}

// MergeChat upserts the chat summary, writing only the fields set in p.
// Setting LastMessage also stamps last_message_time. unread_count is never written.
func (db *DB) MergeChat(ctx context.Context, id string, p model.ChatPatch, now int64) error {
	cols := []string{"id", "updated_at"}
	vals := []any{id, now}
	set := []string{"updated_at = excluded.updated_at"}
	add := func(col string, v any) {
		cols = append(cols, col)
		vals = append(vals, v)
		set = append(set, col+" = excluded."+col)
	}

	if p.ParticipantIDs != nil {
		raw, err := json.Marshal(p.ParticipantIDs)
		if err != nil {
			return err
		}
		add("participants", string(raw))
	}
	if p.ParticipantNames != nil {
		raw, err := json.Marshal(p.ParticipantNames)
		if err != nil {
			return err
		}
		add("participant_names", string(raw))
	}
	if p.LastMessage != nil {
		add("last_message", *p.LastMessage)
		add("last_message_time", now)
	}
	if p.LastMessageSender != nil {
		add("last_message_sender", *p.LastMessageSender)
	}
	if p.Typing != nil {
		add("typing_user_id", p.Typing.UserID)
		add("typing_state", p.Typing.State)
	}

	query, args, err := psql.Insert("chats").
		Columns(cols...).
		Values(vals...).
		Suffix("ON CONFLICT(id) DO UPDATE SET " + strings.Join(set, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build chat merge: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	if p.ParticipantIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_members WHERE chat_id = ?`, id); err != nil {
			return err
		}
		for _, uid := range p.ParticipantIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO chat_members (chat_id, user_id) VALUES (?, ?)`, id, uid); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// GetChat returns a single chat by id, or nil if it does not exist.
func (db *DB) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	c, err := scanChat(db.QueryRowContext(ctx, `SELECT `+chatColumns+` FROM chats c WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListChatsFor returns the chats uid participates in, most recent message first.
func (db *DB) ListChatsFor(ctx context.Context, uid string) ([]model.Chat, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.last_message_time DESC, c.id`, uid)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []model.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// IsChatMember reports whether uid is listed as a participant of the chat.
func (db *DB) IsChatMember(ctx context.Context, chatID, uid string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_members WHERE chat_id = ? AND user_id = ?`, chatID, uid).Scan(&n)
	return n > 0, err
}
