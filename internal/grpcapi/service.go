// Package grpcapi serves the ledger over gRPC.
//
// The service is described by hand with protobuf well-known types as its
// messages, so no generated stubs are needed:
//
//	service hashledger.v1.Ledger {
//	  rpc Stage(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc Seal(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc Validate(google.protobuf.Empty) returns (google.protobuf.BoolValue);
//	  rpc Enumerate(google.protobuf.Empty) returns (google.protobuf.ListValue);
//	}
//
// Records and blocks travel as Structs with the same field names as the
// REST API.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hashledger.v1.Ledger"

// Full method names.
const (
	MethodStage     = "/" + ServiceName + "/Stage"
	MethodSeal      = "/" + ServiceName + "/Seal"
	MethodValidate  = "/" + ServiceName + "/Validate"
	MethodEnumerate = "/" + ServiceName + "/Enumerate"
)

// LedgerServer is the server API for the Ledger service.
type LedgerServer interface {
	Stage(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Seal(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Validate(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	Enumerate(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes the Ledger service to grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Stage",
			Handler: unary(MethodStage, func(s LedgerServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Stage(ctx, in)
			}),
		},
		{
			MethodName: "Seal",
			Handler: unary(MethodSeal, func(s LedgerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Seal(ctx, in)
			}),
		},
		{
			MethodName: "Validate",
			Handler: unary(MethodValidate, func(s LedgerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Validate(ctx, in)
			}),
		},
		{
			MethodName: "Enumerate",
			Handler: unary(MethodEnumerate, func(s LedgerServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.Enumerate(ctx, in)
			}),
		},
	},
	Metadata: "hashledger/v1/ledger.proto",
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed method to grpc's method handler signature.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}](fullMethod string, call func(LedgerServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
