package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

// Client is a backend.Service reached over the daemon socket.
type Client struct {
	conn *grpc.ClientConn
}

var _ backend.Service = (*Client)(nil)

// Dial connects to the daemon listening on socketPath. The connection is
// established lazily on the first call.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Healthy reports whether the daemon answers the standard health check.
func (c *Client) Healthy(ctx context.Context) bool {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func outgoing(ctx context.Context) context.Context {
	if token, ok := authn.TokenFromContext(ctx); ok {
		return metadata.AppendToOutgoingContext(ctx, authHeader, bearerPrefix+token)
	}
	return ctx
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := c.conn.Invoke(outgoing(ctx), fullMethod(method), in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, fromStatus(err)
	}
	return out, nil
}

func call(ctx context.Context, c *Client, method string, in any) error {
	_, err := invoke[Empty](ctx, c, method, in)
	return err
}

// watch opens a server stream. The first snapshot is read before returning so
// that permission and auth failures surface as an error rather than a dead stream.
func watch[T any](ctx context.Context, c *Client, method string, in any) (*live.Stream[T], error) {
	sctx, cancel := context.WithCancel(outgoing(ctx))
	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	cs, err := c.conn.NewStream(sctx, desc, fullMethod(method), grpc.CallContentSubtype(codecName))
	if err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	if err := cs.SendMsg(in); err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, fromStatus(err)
	}
	var first Snapshot[T]
	if err := cs.RecvMsg(&first); err != nil {
		cancel()
		return nil, fromStatus(err)
	}

	return live.Start(ctx, func(ctx context.Context, emit func(T) bool) error {
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		defer cancel()
		if !emit(first.Value) {
			return nil
		}
		for {
			var snap Snapshot[T]
			if err := cs.RecvMsg(&snap); err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return nil
				}
				return fromStatus(err)
			}
			if !emit(snap.Value) {
				return nil
			}
		}
	}), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*backend.AuthResult, error) {
	return invoke[backend.AuthResult](ctx, c, "SignUp", &SignUpRequest{Email: email, Password: password, DisplayName: displayName})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	return invoke[backend.AuthResult](ctx, c, "SignIn", &SignInRequest{Email: email, Password: password})
}

func (c *Client) Reauthenticate(ctx context.Context, password string) (*backend.AuthResult, error) {
	return invoke[backend.AuthResult](ctx, c, "Reauthenticate", &PasswordRequest{Password: password})
}

func (c *Client) Me(ctx context.Context) (*model.Identity, error) {
	return invoke[model.Identity](ctx, c, "Me", &Empty{})
}

func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	return call(ctx, c, "UpdatePassword", &PasswordRequest{Password: newPassword})
}

func (c *Client) UpdateEmail(ctx context.Context, newEmail string) error {
	return call(ctx, c, "UpdateEmail", &EmailRequest{Email: newEmail})
}

func (c *Client) UpdateIdentity(ctx context.Context, displayName, photoURL *string) error {
	return call(ctx, c, "UpdateIdentity", &IdentityRequest{DisplayName: displayName, PhotoURL: photoURL})
}

func (c *Client) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	return invoke[model.UserProfile](ctx, c, "GetUser", &UIDRequest{UID: uid})
}

func (c *Client) SetUser(ctx context.Context, u *model.UserProfile) error {
	return call(ctx, c, "SetUser", u)
}

func (c *Client) CreateUser(ctx context.Context, u *model.UserProfile) (bool, error) {
	resp, err := invoke[CreateUserResponse](ctx, c, "CreateUser", u)
	if err != nil {
		return false, err
	}
	return resp.Created, nil
}

func (c *Client) UpdateUser(ctx context.Context, uid string, p model.UserPatch) error {
	return call(ctx, c, "UpdateUser", &UpdateUserRequest{UID: uid, Patch: p})
}

func (c *Client) WatchUser(ctx context.Context, uid string) (*live.Stream[*model.UserProfile], error) {
	return watch[*model.UserProfile](ctx, c, "WatchUser", &UIDRequest{UID: uid})
}

func (c *Client) WatchUsers(ctx context.Context, onlineOnly bool) (*live.Stream[[]model.UserProfile], error) {
	return watch[[]model.UserProfile](ctx, c, "WatchUsers", &WatchUsersRequest{OnlineOnly: onlineOnly})
}

func (c *Client) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	return invoke[model.Chat](ctx, c, "GetChat", &IDRequest{ID: id})
}

func (c *Client) MergeChat(ctx context.Context, id string, p model.ChatPatch) error {
	return call(ctx, c, "MergeChat", &MergeChatRequest{ID: id, Patch: p})
}

func (c *Client) WatchChat(ctx context.Context, id string) (*live.Stream[*model.Chat], error) {
	return watch[*model.Chat](ctx, c, "WatchChat", &IDRequest{ID: id})
}

func (c *Client) WatchUserChats(ctx context.Context, uid string) (*live.Stream[[]model.Chat], error) {
	return watch[[]model.Chat](ctx, c, "WatchUserChats", &UIDRequest{UID: uid})
}

func (c *Client) AddMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	return invoke[model.Message](ctx, c, "AddMessage", m)
}

func (c *Client) WatchMessages(ctx context.Context, chatID string) (*live.Stream[[]model.Message], error) {
	return watch[[]model.Message](ctx, c, "WatchMessages", &IDRequest{ID: chatID})
}

func (c *Client) PutObject(ctx context.Context, name string, data []byte) (*backend.Object, error) {
	return invoke[backend.Object](ctx, c, "PutObject", &PutObjectRequest{Name: name, Data: data})
}

func (c *Client) DeleteObject(ctx context.Context, url string) error {
	return call(ctx, c, "DeleteObject", &URLRequest{URL: url})
}

func (c *Client) Stats(ctx context.Context) (*backend.Stats, error) {
	return invoke[backend.Stats](ctx, c, "Stats", &Empty{})
}
