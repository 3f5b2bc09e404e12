package model

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the user-declared availability shown next to a profile.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// MessageType distinguishes one-to-one messages from group messages.
type MessageType string

const (
	MessagePrivate MessageType = "private"
	MessageGroup   MessageType = "group"
)

// PrivateChatPrefix starts the id of every one-to-one chat.
const PrivateChatPrefix = "private_"

// PrivateChatID derives the id of the private chat between a and b. The result
// does not depend on argument order.
func PrivateChatID(a, b string) string {
	pair := []string{a, b}
	slices.Sort(pair)
	return PrivateChatPrefix + strings.Join(pair, "_")
}

// InPrivateChat reports whether uid is one of the pair named by a private chat
// id. It is false for ids that are not private chat ids.
func InPrivateChat(chatID, uid string) bool {
	pair, ok := strings.CutPrefix(chatID, PrivateChatPrefix)
	if !ok || uid == "" {
		return false
	}
	return strings.HasPrefix(pair, uid+"_") || strings.HasSuffix(pair, "_"+uid)
}

// UnknownUser is shown when a participant name cannot be resolved.
const UnknownUser = "Unknown User"

// UserProfile is the per-user document in the users collection.
type UserProfile struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	PhotoURL    string     `json:"photoURL,omitempty"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsOnline    bool       `json:"isOnline"`
	Status      Status     `json:"status"`
}

// Message is a single chat message. It is never modified after creation.
type Message struct {
	ID          string      `json:"id,omitempty"`
	Text        string      `json:"text"`
	SenderID    string      `json:"senderId"`
	SenderName  string      `json:"senderName"`
	SenderEmail string      `json:"senderEmail"`
	ReceiverID  string      `json:"receiverId"`
	Timestamp   time.Time   `json:"timestamp"`
	ChatID      string      `json:"chatId"`
	Type        MessageType `json:"type"`
	Read        bool        `json:"read"`
}

// Typing records who last touched the typing indicator of a chat.
type Typing struct {
	UserID string `json:"userId"`
	State  bool   `json:"state"`
}

// Chat is the conversation summary document.
type Chat struct {
	ID                string    `json:"id"`
	ParticipantIDs    []string  `json:"participants"`
	ParticipantNames  []string  `json:"participantNames"`
	LastMessage       string    `json:"lastMessage"`
	LastMessageTime   time.Time `json:"lastMessageTime"`
	LastMessageSender string    `json:"lastMessageSender"`
	UnreadCount       int       `json:"unreadCount"`
	Typing            *Typing   `json:"typing,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// OtherParticipant returns the id of the participant that is not self.
func (c *Chat) OtherParticipant(self string) string {
	for _, id := range c.ParticipantIDs {
		if id != self {
			return id
		}
	}
	return ""
}

// DisplayNameFor returns the name of the other participant as seen by self.
func (c *Chat) DisplayNameFor(self string) string {
	for i, id := range c.ParticipantIDs {
		if id == self || i >= len(c.ParticipantNames) {
			continue
		}
		if name := c.ParticipantNames[i]; name != "" {
			return name
		}
	}
	return UnknownUser
}

// Preview returns the last message truncated to max runes.
func (c *Chat) Preview(max int) string {
	if c.LastMessage == "" {
		return "No messages yet"
	}
	if utf8.RuneCountInString(c.LastMessage) <= max {
		return c.LastMessage
	}
	r := []rune(c.LastMessage)
	return string(r[:max]) + "..."
}

// PeerTyping reports whether the other participant is currently typing.
func (c *Chat) PeerTyping(self string) bool {
	return c.Typing != nil && c.Typing.State && c.Typing.UserID != self
}

// Identity is the authentication record, separate from the profile document.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// FallbackName picks a display name for an identity with no name set.
func (id *Identity) FallbackName() string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return "Anonymous"
}

// UserPatch is a partial update of a profile. Nil fields are left untouched.
type UserPatch struct {
	Email       *string    `json:"email,omitempty"`
	DisplayName *string    `json:"displayName,omitempty"`
	PhotoURL    *string    `json:"photoURL,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	Bio         *string    `json:"bio,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	IsOnline    *bool      `json:"isOnline,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.DisplayName == nil && p.PhotoURL == nil &&
		p.PhoneNumber == nil && p.Bio == nil && p.Status == nil &&
		p.IsOnline == nil && p.LastLoginAt == nil
}

// ChatPatch is a merge-upsert of a chat summary. Nil fields are left untouched;
// a chat that does not exist yet is created from the non-nil fields.
type ChatPatch struct {
	ParticipantIDs    []string `json:"participants,omitempty"`
	ParticipantNames  []string `json:"participantNames,omitempty"`
	LastMessage       *string  `json:"lastMessage,omitempty"`
	LastMessageSender *string  `json:"lastMessageSender,omitempty"`
	Typing            *Typing  `json:"typing,omitempty"`
}

// ProfileUpdate carries the user-editable profile fields.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Patch converts the update into a profile patch.
func (u ProfileUpdate) Patch() UserPatch {
	return UserPatch{
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		PhoneNumber: u.PhoneNumber,
		Bio:         u.Bio,
		Status:      u.Status,
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
