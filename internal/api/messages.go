package api

import "github.com/matheus3301/parley/internal/model"

// Empty is the request or response of calls without arguments or results.
type Empty struct{}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRequest is used by Reauthenticate and UpdatePassword.
type PasswordRequest struct {
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type IdentityRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
}

type UIDRequest struct {
	UID string `json:"uid"`
}

type CreateUserResponse struct {
	Created bool `json:"created"`
}

type UpdateUserRequest struct {
	UID   string          `json:"uid"`
	Patch model.UserPatch `json:"patch"`
}

type WatchUsersRequest struct {
	OnlineOnly bool `json:"onlineOnly"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type MergeChatRequest struct {
	ID    string          `json:"id"`
	Patch model.ChatPatch `json:"patch"`
}

type PutObjectRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type URLRequest struct {
	URL string `json:"url"`
}

// Snapshot is one message of a server stream: the full query result after a change.
type Snapshot[T any] struct {
	Value T `json:"value"`
}
