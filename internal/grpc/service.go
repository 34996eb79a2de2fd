package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "aerolens.analytics.v1.Analytics"

// Full method names
const (
	MethodDetectAnomalies = "/" + ServiceName + "/DetectAnomalies"
	MethodForecast        = "/" + ServiceName + "/Forecast"
	MethodInsights        = "/" + ServiceName + "/Insights"
)

// AnalyticsServer is the server API. Requests and responses carry the same JSON
// documents as the HTTP API, wrapped in google.protobuf.Struct.
type AnalyticsServer interface {
	DetectAnomalies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Forecast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insights(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the analytics service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DetectAnomalies", Handler: unaryHandler(MethodDetectAnomalies, AnalyticsServer.DetectAnomalies)},
		{MethodName: "Forecast", Handler: unaryHandler(MethodForecast, AnalyticsServer.Forecast)},
		{MethodName: "Insights", Handler: unaryHandler(MethodInsights, AnalyticsServer.Insights)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aerolens/analytics/v1/analytics.proto",
}

type unaryMethod func(AnalyticsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AnalyticsHandler implements AnalyticsServer on top of the services layer
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// DetectAnomalies labels every observation of the request series
func (h *AnalyticsHandler) DetectAnomalies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.AnomalyRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.analytics.DetectAnomalies(ctx, &services.AnomalyRequest{
		Metric:        req.Metric,
		Series:        req.Series.ToSeries(),
		Threshold:     req.Threshold,
		Detector:      req.Detector,
		IncludeReport: req.IncludeReport,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(resp)
}

// Forecast predicts future values of the request series
func (h *AnalyticsHandler) Forecast(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.ForecastRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := h.analytics.Forecast(ctx, &services.ForecastRequest{
		Metric:                     req.Metric,
		Series:                     req.Series.ToSeries(),
		Method:                     req.Method,
		Horizon:                    req.Horizon,
		ConfidenceLevel:            req.ConfidenceLevel,
		IncludeConfidenceIntervals: req.IncludeConfidenceIntervals,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(resp)
}

// Insights generates insights over the request table
func (h *AnalyticsHandler) Insights(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.InsightsRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}
	series, err := req.ToSeries()
	if err != nil {
		return nil, toStatus(services.FromAnalyticsError(err))
	}
	resp, err := h.analytics.Insights(ctx, &services.InsightsRequest{
		DataType:    req.DataType,
		Metrics:     req.Metrics,
		Series:      series,
		MaxInsights: req.MaxInsights,
		Enrich:      req.Enrich,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(resp)
}

// decodeStruct converts the Struct to JSON and then into v, validating the result
func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := models.Validate(v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// CodeForService maps service error codes to gRPC codes
func CodeForService(code string) codes.Code {
	switch code {
	case services.CodeInvalidInput, services.CodeInvalidJSON,
		services.CodeInvalidMethod, services.CodeInvalidDetector:
		return codes.InvalidArgument
	case services.CodeInsufficientData:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return status.Error(CodeForService(svcErr.Code), svcErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
