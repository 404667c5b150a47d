package v1alpha1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "rpgcombat.api.v1alpha1.CombatService"

// Method names of CombatService
const (
	MethodCreateSession     = "CreateSession"
	MethodAddTeam           = "AddTeam"
	MethodStartSession      = "StartSession"
	MethodGetSession        = "GetSession"
	MethodSubmitAction      = "SubmitAction"
	MethodRequestSurrender  = "RequestSurrender"
	MethodCastSurrenderVote = "CastSurrenderVote"
	MethodEndSession        = "EndSession"
	MethodListEvents        = "ListEvents"
	MethodListArchived      = "ListArchived"
)

// FullMethod returns the wire path of a CombatService method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CombatServiceServer is the server API for CombatService. Every request and
// response is a google.protobuf.Struct holding the JSON form of the DTOs in
// this package.
type CombatServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddTeam(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestSurrender(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CastSurrenderVote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListArchived(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CombatServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CombatServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CombatServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CombatServiceDesc is the grpc.ServiceDesc for CombatService
var CombatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CombatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodCreateSession, CombatServiceServer.CreateSession),
		unaryHandler(MethodAddTeam, CombatServiceServer.AddTeam),
		unaryHandler(MethodStartSession, CombatServiceServer.StartSession),
		unaryHandler(MethodGetSession, CombatServiceServer.GetSession),
		unaryHandler(MethodSubmitAction, CombatServiceServer.SubmitAction),
		unaryHandler(MethodRequestSurrender, CombatServiceServer.RequestSurrender),
		unaryHandler(MethodCastSurrenderVote, CombatServiceServer.CastSurrenderVote),
		unaryHandler(MethodEndSession, CombatServiceServer.EndSession),
		unaryHandler(MethodListEvents, CombatServiceServer.ListEvents),
		unaryHandler(MethodListArchived, CombatServiceServer.ListArchived),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpgcombat/api/v1alpha1/combat.proto",
}

// RegisterCombatServiceServer registers srv on s
func RegisterCombatServiceServer(s grpc.ServiceRegistrar, srv CombatServiceServer) {
	s.RegisterService(&CombatServiceDesc, srv)
}

// CombatServiceClient is the client API for CombatService
type CombatServiceClient interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type combatServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCombatServiceClient creates a client on top of cc
func NewCombatServiceClient(cc grpc.ClientConnInterface) CombatServiceClient {
	return &combatServiceClient{cc: cc}
}

// Call invokes one unary CombatService method
func (c *combatServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
