package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "foodgram.v1.Foodgram"

	DownloadShoppingCartMethod = "/" + ServiceName + "/DownloadShoppingCart"
	GetRecipeMethod            = "/" + ServiceName + "/GetRecipe"
)

// FoodgramServer is the server API for the foodgram.v1.Foodgram service.
// Messages are protobuf well-known types so no generated code is needed.
type FoodgramServer interface {
	DownloadShoppingCart(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetRecipe(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)
}

var FoodgramServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FoodgramServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DownloadShoppingCart", Handler: downloadShoppingCartHandler},
		{MethodName: "GetRecipe", Handler: getRecipeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodgram/v1/foodgram.proto",
}

func RegisterFoodgramServer(s grpc.ServiceRegistrar, srv FoodgramServer) {
	s.RegisterService(&FoodgramServiceDesc, srv)
}

func downloadShoppingCartHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FoodgramServer).DownloadShoppingCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DownloadShoppingCartMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FoodgramServer).DownloadShoppingCart(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getRecipeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FoodgramServer).GetRecipe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRecipeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FoodgramServer).GetRecipe(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

type FoodgramClient struct {
	cc grpc.ClientConnInterface
}

func NewFoodgramClient(cc grpc.ClientConnInterface) *FoodgramClient {
	return &FoodgramClient{cc: cc}
}

func (c *FoodgramClient) DownloadShoppingCart(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, DownloadShoppingCartMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *FoodgramClient) GetRecipe(ctx context.Context, id uint64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetRecipeMethod, wrapperspb.UInt64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
