package pb

import (
	"context"

	"google.golang.org/grpc"
)

// AFCONServer is the interface gRPC handlers implement, in the same shape
// protoc-gen-go-grpc would generate from a service AFCON { ... } block.
type AFCONServer interface {
	StreamLiveMatches(req *LiveMatchRequest, stream AFCON_StreamLiveMatchesServer) error
	SyncFixtures(ctx context.Context, req *SyncFixturesRequest) (*SyncFixturesResponse, error)
	GetFixturesByDate(ctx context.Context, req *GetFixturesByDateRequest) (*GetFixturesByDateResponse, error)
}

// AFCON_StreamLiveMatchesServer is the typed server-side stream handle for
// StreamLiveMatches, mirroring the generated *_Server interfaces for a
// server-streaming RPC.
type AFCON_StreamLiveMatchesServer interface {
	Send(*LiveMatchUpdate) error
	grpc.ServerStream
}

type afconStreamLiveMatchesServer struct {
	grpc.ServerStream
}

func (s *afconStreamLiveMatchesServer) Send(u *LiveMatchUpdate) error {
	return s.ServerStream.SendMsg(u)
}

func _AFCON_StreamLiveMatches_Handler(srv interface{}, stream grpc.ServerStream) error {
	req := new(LiveMatchRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(AFCONServer).StreamLiveMatches(req, &afconStreamLiveMatchesServer{stream})
}

func _AFCON_SyncFixtures_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(SyncFixturesRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AFCONServer).SyncFixtures(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/afcon.AFCON/SyncFixtures"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AFCONServer).SyncFixtures(ctx, req.(*SyncFixturesRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _AFCON_GetFixturesByDate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetFixturesByDateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AFCONServer).GetFixturesByDate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/afcon.AFCON/GetFixturesByDate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AFCONServer).GetFixturesByDate(ctx, req.(*GetFixturesByDateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// AFCON_ServiceDesc is the grpc.ServiceDesc a generated _grpc.pb.go file
// would have produced for this service.
var AFCON_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "afcon.AFCON",
	HandlerType: (*AFCONServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SyncFixtures", Handler: _AFCON_SyncFixtures_Handler},
		{MethodName: "GetFixturesByDate", Handler: _AFCON_GetFixturesByDate_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamLiveMatches",
			Handler:       _AFCON_StreamLiveMatches_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "afcon.proto",
}

// RegisterAFCONServer wires srv into s, the same call shape a generated
// RegisterAFCONServer would have.
func RegisterAFCONServer(s grpc.ServiceRegistrar, srv AFCONServer) {
	s.RegisterService(&AFCON_ServiceDesc, srv)
}
