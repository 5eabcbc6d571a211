package grpcapi

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/jmerrifield20/hashledger/internal/auth"
	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// Service is the subset of *service.LedgerService the gRPC API needs.
type Service interface {
	Stage(payload string) ledger.Record
	Seal(ctx context.Context) (ledger.Block, error)
	Validate() bool
	Enumerate() []ledger.Block
}

// Server implements LedgerServer on top of a Service.
type Server struct {
	svc    Service
	logger *zap.Logger
}

// NewServer creates a Server.
func NewServer(svc Service, logger *zap.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

// NewGRPCServer returns a grpc.Server with the Ledger and health services
// registered. A nil tokens disables auth on Stage and Seal.
func NewGRPCServer(svc Service, tokens *auth.TokenIssuer, logger *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(logger),
			AuthInterceptor(tokens, MethodStage, MethodSeal),
		),
	)
	RegisterLedgerServer(srv, NewServer(svc, logger))

	healthSvc := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthSvc)
	healthSvc.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthSvc.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return srv, healthSvc
}

// Stage implements LedgerServer.
func (s *Server) Stage(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	r := s.svc.Stage(in.GetValue())
	out := &structpb.Struct{}
	if err := toProto(r, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode record: %v", err)
	}
	return out, nil
}

// Seal implements LedgerServer.
func (s *Server) Seal(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	b, err := s.svc.Seal(ctx)
	if errors.Is(err, ledger.ErrEmptyChain) {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "seal: %v", err)
	}
	out := &structpb.Struct{}
	if err := toProto(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode block: %v", err)
	}
	return out, nil
}

// Validate implements LedgerServer.
func (s *Server) Validate(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.svc.Validate()), nil
}

// Enumerate implements LedgerServer.
func (s *Server) Enumerate(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	out := &structpb.ListValue{}
	if err := toProto(s.svc.Enumerate(), out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode chain: %v", err)
	}
	return out, nil
}

// toProto converts v to a Struct or ListValue through its JSON form, so the
// field names match the REST API.
func toProto(v any, m proto.Message) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return protojson.Unmarshal(data, m)
}

// fromProto is the inverse of toProto.
func fromProto(m proto.Message, v any) error {
	data, err := protojson.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
