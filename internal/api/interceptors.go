package api

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/matheus3301/parley/internal/authn"
	"github.com/matheus3301/parley/internal/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
)

const (
	authHeader   = "authorization"
	bearerPrefix = "Bearer "
)

// ServerOptions installs the interceptors every backend server needs: the
// bearer token is moved from metadata into the context, errors are converted
// to statuses, and calls are logged and counted.
func ServerOptions(logger *zap.Logger, m *metrics.Metrics) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryInterceptor(logger, m)),
		grpc.ChainStreamInterceptor(streamInterceptor(logger, m)),
	}
}

func withBearer(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	for _, v := range md.Get(authHeader) {
		if token, ok := strings.CutPrefix(v, bearerPrefix); ok {
			return authn.WithToken(ctx, token)
		}
	}
	return ctx
}

func observe(logger *zap.Logger, m *metrics.Metrics, method string, start time.Time, err error) {
	name := path.Base(method)
	code := grpcstatus.Code(err)
	m.ObserveRequest(name, code.String())
	if err != nil {
		logger.Debug("call failed",
			zap.String("method", name),
			zap.String("code", code.String()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	logger.Debug("call", zap.String("method", name), zap.Duration("took", time.Since(start)))
}

func unaryInterceptor(logger *zap.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(withBearer(ctx), req)
		err = toStatus(err)
		observe(logger, m, info.FullMethod, start, err)
		return resp, err
	}
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context {
	return s.ctx
}

func streamInterceptor(logger *zap.Logger, m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := toStatus(handler(srv, &authStream{ServerStream: ss, ctx: withBearer(ss.Context())}))
		observe(logger, m, info.FullMethod, start, err)
		return err
	}
}
