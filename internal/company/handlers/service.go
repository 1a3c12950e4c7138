package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// RiskService is served without generated stubs: requests and responses
// are google.protobuf.Struct messages.
const (
	RiskServiceName          = "companyrisk.v1.RiskService"
	AnalyzeCompanyFullMethod = "/" + RiskServiceName + "/AnalyzeCompany"
	GetAnalysisFullMethod    = "/" + RiskServiceName + "/GetAnalysis"
)

// RiskServiceServer is the server API for RiskService.
//
// AnalyzeCompany takes {"company_number": string, "mode": "basic"|"binary"}.
// GetAnalysis takes {"id": string} or {"company_number": string} for the
// latest analysis of a company. Both return an analysis object.
type RiskServiceServer interface {
	AnalyzeCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAnalysis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RiskServiceDesc describes RiskService for grpc.Server.RegisterService.
var RiskServiceDesc = grpc.ServiceDesc{
	ServiceName: RiskServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AnalyzeCompany",
			Handler:    analyzeCompanyHandler,
		},
		{
			MethodName: "GetAnalysis",
			Handler:    getAnalysisHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "companyrisk/v1/risk.proto",
}

func analyzeCompanyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).AnalyzeCompany(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AnalyzeCompanyFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).AnalyzeCompany(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getAnalysisHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetAnalysis(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetAnalysisFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).GetAnalysis(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RiskServiceClient is the client API for RiskService.
type RiskServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRiskServiceClient(cc grpc.ClientConnInterface) *RiskServiceClient {
	return &RiskServiceClient{cc: cc}
}

func (c *RiskServiceClient) AnalyzeCompany(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AnalyzeCompanyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) GetAnalysis(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetAnalysisFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
