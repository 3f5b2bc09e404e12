package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/matheus3301/parley/internal/bus"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
)

// member fails with ErrPermissionDenied when uid is not a participant of the
// chat. Private chat ids name their pair, so they are checked even before the
// chat lists participants.
func (b *Backend) member(ctx context.Context, chatID, uid string) (*model.Chat, error) {
	if strings.HasPrefix(chatID, model.PrivateChatPrefix) && !model.InPrivateChat(chatID, uid) {
		return nil, fmt.Errorf("%w: not a participant of %s", ErrPermissionDenied, chatID)
	}
	c, err := b.db.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load chat: %w", err)
	}
	if c != nil && len(c.ParticipantIDs) > 0 && !slices.Contains(c.ParticipantIDs, uid) {
		return nil, fmt.Errorf("%w: not a participant of %s", ErrPermissionDenied, chatID)
	}
	return c, nil
}

// GetChat implements Service.
func (b *Backend) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := b.member(ctx, id, claims.UserID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: chat %s", ErrNotFound, id)
	}
	return c, nil
}

// MergeChat implements Service. The chat is created when missing, so a typing
// update may create a summary without participants.
func (b *Backend) MergeChat(ctx context.Context, id string, p model.ChatPatch) error {
	claims, err := b.caller(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: missing chat id", ErrInvalidArgument)
	}
	if p.ParticipantIDs != nil && !slices.Contains(p.ParticipantIDs, claims.UserID) {
		return fmt.Errorf("%w: participants must include the caller", ErrPermissionDenied)
	}
	if p.ParticipantIDs != nil && strings.HasPrefix(id, model.PrivateChatPrefix) &&
		(len(p.ParticipantIDs) != 2 || model.PrivateChatID(p.ParticipantIDs[0], p.ParticipantIDs[1]) != id) {
		return fmt.Errorf("%w: participants do not match %s", ErrPermissionDenied, id)
	}
	if p.ParticipantNames != nil && p.ParticipantIDs != nil && len(p.ParticipantNames) != len(p.ParticipantIDs) {
		return fmt.Errorf("%w: %d names for %d participants", ErrInvalidArgument, len(p.ParticipantNames), len(p.ParticipantIDs))
	}
	if _, err := b.member(ctx, id, claims.UserID); err != nil {
		return err
	}
	if err := b.db.MergeChat(ctx, id, p, b.now().UnixMilli()); err != nil {
		return fmt.Errorf("merge chat: %w", err)
	}
	b.publish(bus.CollectionChats, id)
	return nil
}

// WatchChat implements Service. The stream emits nil while the chat does not exist.
func (b *Backend) WatchChat(ctx context.Context, id string) (*live.Stream[*model.Chat], error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := b.member(ctx, id, claims.UserID); err != nil {
		return nil, err
	}
	return watch(ctx, b, bus.CollectionChats, bus.DocKind(bus.CollectionChats, id),
		func(ctx context.Context) (*model.Chat, error) {
			return b.db.GetChat(ctx, id)
		}), nil
}

// WatchUserChats implements Service. Only the caller's own chat list can be watched.
func (b *Backend) WatchUserChats(ctx context.Context, uid string) (*live.Stream[[]model.Chat], error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if claims.UserID != uid {
		return nil, fmt.Errorf("%w: chat list of %s", ErrPermissionDenied, uid)
	}
	return watch(ctx, b, bus.CollectionChats, bus.CollectionKind(bus.CollectionChats),
		func(ctx context.Context) ([]model.Chat, error) {
			return b.db.ListChatsFor(ctx, uid)
		}), nil
}

// AddMessage implements Service. The backend assigns the id and timestamp.
func (b *Backend) AddMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil || m.ChatID == "" {
		return nil, fmt.Errorf("%w: missing chat id", ErrInvalidArgument)
	}
	if m.SenderID != claims.UserID {
		return nil, fmt.Errorf("%w: sender must be the caller", ErrPermissionDenied)
	}
	if m.ReceiverID != "" && m.Type != model.MessageGroup && m.ChatID != model.PrivateChatID(m.SenderID, m.ReceiverID) {
		return nil, fmt.Errorf("%w: chat %s is not between sender and receiver", ErrPermissionDenied, m.ChatID)
	}
	if _, err := b.member(ctx, m.ChatID, claims.UserID); err != nil {
		return nil, err
	}

	out := *m
	out.ID = uuid.NewString()
	out.Timestamp = b.now()
	if out.Type == "" {
		out.Type = model.MessagePrivate
	}
	if err := b.db.InsertMessage(ctx, &out); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	b.metrics.MessageSent()
	b.publish(bus.CollectionMessages, out.ChatID)
	return &out, nil
}

// WatchMessages implements Service. Messages are emitted oldest first.
func (b *Backend) WatchMessages(ctx context.Context, chatID string) (*live.Stream[[]model.Message], error) {
	claims, err := b.caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := b.member(ctx, chatID, claims.UserID); err != nil {
		return nil, err
	}
	return watch(ctx, b, bus.CollectionMessages, bus.DocKind(bus.CollectionMessages, chatID),
		func(ctx context.Context) ([]model.Message, error) {
			return b.db.ListMessages(ctx, chatID)
		}), nil
}
