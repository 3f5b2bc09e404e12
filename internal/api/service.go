package api

import (
	"context"

	"github.com/matheus3301/parley/internal/backend"
	"github.com/matheus3301/parley/internal/live"
	"github.com/matheus3301/parley/internal/model"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "parley.v1.Backend"

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Register exposes svc on s.
func Register(s grpc.ServiceRegistrar, svc backend.Service) {
	s.RegisterService(&ServiceDesc, svc)
}

// ServiceDesc describes parley.v1.Backend. Unary methods mirror the one-shot
// methods of backend.Service; the Watch methods are server streams of snapshots.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*backend.Service)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignUp", func(ctx context.Context, s backend.Service, in *SignUpRequest) (*backend.AuthResult, error) {
			return s.SignUp(ctx, in.Email, in.Password, in.DisplayName)
		}),
		unary("SignIn", func(ctx context.Context, s backend.Service, in *SignInRequest) (*backend.AuthResult, error) {
			return s.SignIn(ctx, in.Email, in.Password)
		}),
		unary("Reauthenticate", func(ctx context.Context, s backend.Service, in *PasswordRequest) (*backend.AuthResult, error) {
			return s.Reauthenticate(ctx, in.Password)
		}),
		unary("Me", func(ctx context.Context, s backend.Service, _ *Empty) (*model.Identity, error) {
			return s.Me(ctx)
		}),
		unary("UpdatePassword", func(ctx context.Context, s backend.Service, in *PasswordRequest) (*Empty, error) {
			return empty(s.UpdatePassword(ctx, in.Password))
		}),
		unary("UpdateEmail", func(ctx context.Context, s backend.Service, in *EmailRequest) (*Empty, error) {
			return empty(s.UpdateEmail(ctx, in.Email))
		}),
		unary("UpdateIdentity", func(ctx context.Context, s backend.Service, in *IdentityRequest) (*Empty, error) {
			return empty(s.UpdateIdentity(ctx, in.DisplayName, in.PhotoURL))
		}),
		unary("GetUser", func(ctx context.Context, s backend.Service, in *UIDRequest) (*model.UserProfile, error) {
			return s.GetUser(ctx, in.UID)
		}),
		unary("SetUser", func(ctx context.Context, s backend.Service, in *model.UserProfile) (*Empty, error) {
			return empty(s.SetUser(ctx, in))
		}),
		unary("CreateUser", func(ctx context.Context, s backend.Service, in *model.UserProfile) (*CreateUserResponse, error) {
			created, err := s.CreateUser(ctx, in)
			if err != nil {
				return nil, err
			}
			return &CreateUserResponse{Created: created}, nil
		}),
		unary("UpdateUser", func(ctx context.Context, s backend.Service, in *UpdateUserRequest) (*Empty, error) {
			return empty(s.UpdateUser(ctx, in.UID, in.Patch))
		}),
		unary("GetChat", func(ctx context.Context, s backend.Service, in *IDRequest) (*model.Chat, error) {
			return s.GetChat(ctx, in.ID)
		}),
		unary("MergeChat", func(ctx context.Context, s backend.Service, in *MergeChatRequest) (*Empty, error) {
			return empty(s.MergeChat(ctx, in.ID, in.Patch))
		}),
		unary("AddMessage", func(ctx context.Context, s backend.Service, in *model.Message) (*model.Message, error) {
			return s.AddMessage(ctx, in)
		}),
		unary("PutObject", func(ctx context.Context, s backend.Service, in *PutObjectRequest) (*backend.Object, error) {
			return s.PutObject(ctx, in.Name, in.Data)
		}),
		unary("DeleteObject", func(ctx context.Context, s backend.Service, in *URLRequest) (*Empty, error) {
			return empty(s.DeleteObject(ctx, in.URL))
		}),
		unary("Stats", func(ctx context.Context, s backend.Service, _ *Empty) (*backend.Stats, error) {
			return s.Stats(ctx)
		}),
	},
	Streams: []grpc.StreamDesc{
		serverStream("WatchUser", func(ctx context.Context, s backend.Service, in *UIDRequest) (*live.Stream[*model.UserProfile], error) {
			return s.WatchUser(ctx, in.UID)
		}),
		serverStream("WatchUsers", func(ctx context.Context, s backend.Service, in *WatchUsersRequest) (*live.Stream[[]model.UserProfile], error) {
			return s.WatchUsers(ctx, in.OnlineOnly)
		}),
		serverStream("WatchChat", func(ctx context.Context, s backend.Service, in *IDRequest) (*live.Stream[*model.Chat], error) {
			return s.WatchChat(ctx, in.ID)
		}),
		serverStream("WatchUserChats", func(ctx context.Context, s backend.Service, in *UIDRequest) (*live.Stream[[]model.Chat], error) {
			return s.WatchUserChats(ctx, in.UID)
		}),
		serverStream("WatchMessages", func(ctx context.Context, s backend.Service, in *IDRequest) (*live.Stream[[]model.Message], error) {
			return s.WatchMessages(ctx, in.ID)
		}),
	},
	Metadata: "parley/v1/backend",
}

func empty(err error) (*Empty, error) {
	if err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func unary[Req, Resp any](name string, call func(context.Context, backend.Service, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			svc := srv.(backend.Service)
			if interceptor == nil {
				return call(ctx, svc, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(ctx, svc, req.(*Req))
			})
		},
	}
}

// serverStream sends every snapshot of the opened subscription until the
// client goes away or the subscription fails.
func serverStream[Req, T any](name string, open func(context.Context, backend.Service, *Req) (*live.Stream[T], error)) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    name,
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Req)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			sub, err := open(stream.Context(), srv.(backend.Service), in)
			if err != nil {
				return err
			}
			defer sub.Cancel()
			for v := range sub.C() {
				if err := stream.SendMsg(&Snapshot[T]{Value: v}); err != nil {
					return err
				}
			}
			return sub.Err()
		},
	}
}
