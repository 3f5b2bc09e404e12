// Package messaging sends private messages and exposes the realtime views the
// chat screen renders: conversations, threads, typing and presence.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"github.com/matheus3301/parley/internal/session"
	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = session.ErrUnauthenticated
	ErrEmptyMessage    = errors.New("message is empty")
	// ErrSummaryNotUpdated is wrapped when the message was stored but the chat
	// summary write that follows it failed.
	ErrSummaryNotUpdated = errors.New("chat summary not updated")
)

// ChatID derives the id of the private chat between a and b. The result does
// not depend on argument order.
func ChatID(a, b string) string {
	return model.PrivateChatID(a, b)
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	TypingIdle   time.Duration
	WriteTimeout time.Duration
}

// Service performs messaging on behalf of the session's user.
type Service struct {
	sess   *session.Session
	logger *zap.Logger

	typingIdle   time.Duration
	writeTimeout time.Duration
}

// New creates a messaging service bound to sess.
func New(sess *session.Session, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TypingIdle <= 0 {
		opts.TypingIdle = 300 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Service{
		sess:         sess,
		logger:       logger,
		typingIdle:   opts.TypingIdle,
		writeTimeout: opts.WriteTimeout,
	}
}

// actor returns the signed-in identity and a context carrying its token.
func (s *Service) actor(ctx context.Context) (*model.Identity, context.Context, error) {
	id := s.sess.Identity()
	if id == nil {
		return nil, nil, ErrUnauthenticated
	}
	return id, s.sess.Context(ctx), nil
}

// write detaches a one-shot write from the caller's cancellation. Closing a
// screen does not abort a send that is already underway.
func (s *Service) write(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

// SendMessage stores a private message to receiverID and updates the chat
// summary. The two writes are not atomic: when the second fails the message
// stays and the returned error wraps ErrSummaryNotUpdated.
func (s *Service) SendMessage(ctx context.Context, receiverID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()

	svc := s.sess.Backend()
	chatID := ChatID(me.UID, receiverID)
	msg, err := svc.AddMessage(ctx, &model.Message{
		Text:        text,
		SenderID:    me.UID,
		SenderName:  me.FallbackName(),
		SenderEmail: me.Email,
		ReceiverID:  receiverID,
		ChatID:      chatID,
		Type:        model.MessagePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	err = svc.MergeChat(ctx, chatID, model.ChatPatch{
		ParticipantIDs:    []string{me.UID, receiverID},
		ParticipantNames:  []string{s.displayName(ctx, me.UID), s.displayName(ctx, receiverID)},
		LastMessage:       model.Ptr(text),
		LastMessageSender: model.Ptr(me.UID),
		Typing:            &model.Typing{UserID: me.UID, State: false},
	})
	if err != nil {
		s.logger.Warn("message stored without summary", zap.String("chat", chatID), zap.Error(err))
		return msg, fmt.Errorf("%w: %w", ErrSummaryNotUpdated, err)
	}
	return msg, nil
}

// displayName resolves a participant name from the profile collection.
func (s *Service) displayName(ctx context.Context, uid string) string {
	p, err := s.sess.Backend().GetUser(ctx, uid)
	if err != nil || p == nil || p.DisplayName == "" {
		return model.UnknownUser
	}
	return p.DisplayName
}

// SetTyping writes only the typing field of the chat summary.
func (s *Service) SetTyping(ctx context.Context, chatID string, state bool) error {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := s.write(ctx)
	defer cancel()
	if err := s.sess.Backend().MergeChat(ctx, chatID, model.ChatPatch{
		Typing: &model.Typing{UserID: me.UID, State: state},
	}); err != nil {
		return fmt.Errorf("set typing: %w", err)
	}
	return nil
}

// UserProfile returns the profile of uid, or nil when it does not exist.
func (s *Service) UserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	_, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.sess.Backend().GetUser(ctx, uid)
	if errors.Is(err, backend.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// SubscribeChat streams every revision of a chat summary, typing flips included.
func (s *Service) SubscribeChat(ctx context.Context, chatID string) (*live.Stream[*model.Chat], error) {
	_, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.sess.Backend().WatchChat(ctx, chatID)
}

// SubscribeMessages streams the whole thread with otherUserID, oldest first.
func (s *Service) SubscribeMessages(ctx context.Context, otherUserID string) (*live.Stream[[]model.Message], error) {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.sess.Backend().WatchMessages(ctx, ChatID(me.UID, otherUserID))
}

// SubscribeUserChats streams the chats of the current user, most recent first.
func (s *Service) SubscribeUserChats(ctx context.Context) (*live.Stream[[]model.Chat], error) {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.sess.Backend().WatchUserChats(ctx, me.UID)
}

// SubscribeOnlineUsers streams the online profiles other than the current user.
func (s *Service) SubscribeOnlineUsers(ctx context.Context) (*live.Stream[[]model.UserProfile], error) {
	return s.subscribeUsers(ctx, true)
}

// SubscribeAllUsers streams every profile other than the current user.
func (s *Service) SubscribeAllUsers(ctx context.Context) (*live.Stream[[]model.UserProfile], error) {
	return s.subscribeUsers(ctx, false)
}

func (s *Service) subscribeUsers(ctx context.Context, onlineOnly bool) (*live.Stream[[]model.UserProfile], error) {
	me, ctx, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	src, err := s.sess.Backend().WatchUsers(ctx, onlineOnly)
	if err != nil {
		return nil, err
	}
	return live.Map(src, func(users []model.UserProfile) []model.UserProfile {
		out := make([]model.UserProfile, 0, len(users))
		for _, u := range users {
			if u.UID == me.UID || (onlineOnly && !u.IsOnline) {
				continue
			}
			out = append(out, u)
		}
		return out
	}), nil
}
