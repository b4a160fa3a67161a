// Package api provides the gRPC MatchAPI service implementation.
package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatis/eventtrail/internal/core/config"
	"github.com/solatis/eventtrail/internal/patterns"
	"github.com/solatis/eventtrail/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names, as seen by interceptors.
const (
	ServiceName            = "eventtrail.v1.MatchAPI"
	EvaluateFullMethod     = "/" + ServiceName + "/Evaluate"
	SyncPatternsFullMethod = "/" + ServiceName + "/SyncPatterns"
)

// PatternStore is the read side of the pattern registry.
// Implemented by *db.PatternStore.
type PatternStore interface {
	Get(ctx context.Context, tenantID types.TenantID, id types.PatternID) (*types.StoredPattern, error)
	List(ctx context.Context, tenantID types.TenantID) ([]*types.StoredPattern, error)
}

// MatchAPIServer is the server side of eventtrail.v1.MatchAPI.
// Requests and responses are google.protobuf.Struct documents.
type MatchAPIServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncPatterns(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// MatchAPIService implements MatchAPIServer.
// Thin orchestration layer delegating to db, patterns and auth packages.
type MatchAPIService struct {
	store  PatternStore
	engine *patterns.Engine
	cfg    *config.MatchAPIConfig
	logger *slog.Logger
}

// NewMatchAPIService creates service instance with dependencies.
func NewMatchAPIService(store PatternStore, engine *patterns.Engine, cfg *config.MatchAPIConfig, logger *slog.Logger) (*MatchAPIService, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MatchAPIService{
		store:  store,
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RegisterMatchAPIServer registers srv on s.
func RegisterMatchAPIServer(s grpc.ServiceRegistrar, srv MatchAPIServer) {
	s.RegisterService(&matchAPIServiceDesc, srv)
}

var matchAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "SyncPatterns", Handler: syncPatternsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eventtrail/v1/match_api.proto",
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchAPIServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluateFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchAPIServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func syncPatternsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchAPIServer).SyncPatterns(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SyncPatternsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchAPIServer).SyncPatterns(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// MatchAPIClient calls eventtrail.v1.MatchAPI.
type MatchAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewMatchAPIClient wraps a client connection.
func NewMatchAPIClient(cc grpc.ClientConnInterface) *MatchAPIClient {
	return &MatchAPIClient{cc: cc}
}

// Evaluate invokes MatchAPI/Evaluate.
func (c *MatchAPIClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncPatterns invokes MatchAPI/SyncPatterns.
func (c *MatchAPIClient) SyncPatterns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SyncPatternsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
