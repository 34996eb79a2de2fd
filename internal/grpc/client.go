package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// AnalyticsClient calls the analytics service
type AnalyticsClient struct {
	cc grpc.ClientConnInterface
}

// NewAnalyticsClient creates a client over an established connection
func NewAnalyticsClient(cc grpc.ClientConnInterface) *AnalyticsClient {
	return &AnalyticsClient{cc: cc}
}

// DetectAnomalies calls Analytics/DetectAnomalies
func (c *AnalyticsClient) DetectAnomalies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDetectAnomalies, in, opts...)
}

// Forecast calls Analytics/Forecast
func (c *AnalyticsClient) Forecast(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodForecast, in, opts...)
}

// Insights calls Analytics/Insights
func (c *AnalyticsClient) Insights(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodInsights, in, opts...)
}

func (c *AnalyticsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
