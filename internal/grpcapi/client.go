package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/jmerrifield20/hashledger/internal/ledger"
)

// Client is a typed client for the Ledger service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Stage stages payload and returns the staged record.
func (c *Client) Stage(ctx context.Context, payload string, opts ...grpc.CallOption) (ledger.Record, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodStage, wrapperspb.String(payload), out, opts...); err != nil {
		return ledger.Record{}, err
	}
	var r ledger.Record
	if err := fromProto(out, &r); err != nil {
		return ledger.Record{}, err
	}
	return r, nil
}

// Seal seals the staged records into a new block.
func (c *Client) Seal(ctx context.Context, opts ...grpc.CallOption) (ledger.Block, error) {
	out := &structpb.Struct{}
	if err := c.cc.Invoke(ctx, MethodSeal, &emptypb.Empty{}, out, opts...); err != nil {
		return ledger.Block{}, err
	}
	var b ledger.Block
	if err := fromProto(out, &b); err != nil {
		return ledger.Block{}, err
	}
	return b, nil
}

// Validate reports whether the chain is intact.
func (c *Client) Validate(ctx context.Context, opts ...grpc.CallOption) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.cc.Invoke(ctx, MethodValidate, &emptypb.Empty{}, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Enumerate returns every block in order.
func (c *Client) Enumerate(ctx context.Context, opts ...grpc.CallOption) ([]ledger.Block, error) {
	out := &structpb.ListValue{}
	if err := c.cc.Invoke(ctx, MethodEnumerate, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	var blocks []ledger.Block
	if err := fromProto(out, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// bearerToken attaches an operator token to every call.
type bearerToken struct {
	token    string
	insecure bool
}

// BearerToken returns per-RPC credentials carrying token. allowInsecure
// permits sending it over a connection without transport security.
func BearerToken(token string, allowInsecure bool) credentials.PerRPCCredentials {
	return bearerToken{token: token, insecure: allowInsecure}
}

func (b bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerToken) RequireTransportSecurity() bool { return !b.insecure }
