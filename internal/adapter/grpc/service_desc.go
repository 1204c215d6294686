package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "wealthsim.v1.AssetService"

// AssetServiceServer is the server API of the asset service.
// Every RPC is unary and exchanges JSON-shaped structpb.Struct messages.
type AssetServiceServer interface {
	AddRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateStockPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCryptoPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCash(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetWealth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNetWorthBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAssetPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOwnershipBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TriggerRefresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRefreshState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PerformCompleteReset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdvanceTime(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AssetServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AssetServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the full gRPC method name of an RPC
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AssetServiceDesc describes the asset service for grpc.Server.RegisterService
var AssetServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AddRecord", AssetServiceServer.AddRecord),
		unary("UpdateRecord", AssetServiceServer.UpdateRecord),
		unary("RemoveRecord", AssetServiceServer.RemoveRecord),
		unary("UpdateStockPrice", AssetServiceServer.UpdateStockPrice),
		unary("UpdateCryptoPrice", AssetServiceServer.UpdateCryptoPrice),
		unary("UpdateCash", AssetServiceServer.UpdateCash),
		unary("SetWealth", AssetServiceServer.SetWealth),
		unary("GetNetWorthBreakdown", AssetServiceServer.GetNetWorthBreakdown),
		unary("GetAssetPrice", AssetServiceServer.GetAssetPrice),
		unary("GetOwnershipBreakdown", AssetServiceServer.GetOwnershipBreakdown),
		unary("TriggerRefresh", AssetServiceServer.TriggerRefresh),
		unary("GetRefreshState", AssetServiceServer.GetRefreshState),
		unary("PerformCompleteReset", AssetServiceServer.PerformCompleteReset),
		unary("GetDashboard", AssetServiceServer.GetDashboard),
		unary("AdvanceTime", AssetServiceServer.AdvanceTime),
		unary("ListEvents", AssetServiceServer.ListEvents),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wealthsim/v1/asset_service",
}

// RegisterAssetServiceServer registers srv on s
func RegisterAssetServiceServer(s grpc.ServiceRegistrar, srv AssetServiceServer) {
	s.RegisterService(&AssetServiceDesc, srv)
}

// Client calls the asset service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes the named RPC with a request payload
func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
