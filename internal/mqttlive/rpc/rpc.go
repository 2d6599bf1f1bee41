// Package rpc exposes the UI-boundary mutation RPCs
// (add-plot-if-not-exists, cut/offset, MQTT connect/disconnect,
// discovery start/stop) over a small gRPC streaming service, so a
// companion process can drive a session or subscribe to the live-data
// feed without embedding the plotter.
//
// No .proto/protoc toolchain is available in this environment, so the
// service is described by a hand-built grpc.ServiceDesc — the same
// mechanism grpc-go's own generated code produces, just written by hand
// — rather than a fabricated generated-code package. Every wire message
// is a pre-compiled google.golang.org/protobuf/types/known/wrapperspb
// message; requests that need more than one field are JSON-encoded into
// a wrapperspb.StringValue rather than inventing a custom .pb.go type.
// Grounded on the teacher's internal/lidar/visualiser gRPC server
// (grpc_server.go, publisher.go), which streams over a protoc-generated
// service description this repo has no way to regenerate.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/telemetry-plotter/internal/mqttlive"
)

// ServiceName is the gRPC service name advertised in the ServiceDesc.
const ServiceName = "telemetryplotter.LiveControl"

// AddPlotRequest is JSON-encoded into a wrapperspb.StringValue for the
// AddPlotIfNotExists RPC.
type AddPlotRequest struct {
	LogID      uint16 `json:"log_id"`
	LegendName string `json:"legend_name"`
}

// CutPlotRequest is JSON-encoded into a wrapperspb.StringValue for
// CutPlotWithinXRange.
type CutPlotRequest struct {
	LogID   uint16  `json:"log_id"`
	Name    string  `json:"name"`
	StartNs float64 `json:"start_ns"`
	EndNs   float64 `json:"end_ns"`
}

// OffsetPlotRequest is JSON-encoded into a wrapperspb.StringValue for
// OffsetPlot.
type OffsetPlotRequest struct {
	LogID      uint16  `json:"log_id"`
	Name       string  `json:"name"`
	NewStartNs float64 `json:"new_start_ns"`
}

// ConnectMqttRequest is JSON-encoded into a wrapperspb.StringValue for
// ConnectMqtt.
type ConnectMqttRequest struct {
	BrokerURL string   `json:"broker_url"`
	ClientID  string   `json:"client_id"`
	Topics    []string `json:"topics"`
}

// Server is the interface the hand-built ServiceDesc dispatches into.
// A concrete implementation wires these calls into the aggregator,
// assembler, and mqttlive.Worker that make up a live session.
type Server interface {
	AddPlotIfNotExists(ctx context.Context, req AddPlotRequest) (added bool, err error)
	CutPlotWithinXRange(ctx context.Context, req CutPlotRequest) error
	OffsetPlot(ctx context.Context, req OffsetPlotRequest) error
	ConnectMqtt(ctx context.Context, req ConnectMqttRequest) error
	DisconnectMqtt(ctx context.Context) error
	StartDiscovery(ctx context.Context, brokerURL string) error
	StopDiscovery(ctx context.Context) error
	// StreamLiveData streams every mqttlive.MqttTopicData matching
	// topicFilter ("" matches everything) until the client disconnects.
	StreamLiveData(topicFilter string, send func(mqttlive.MqttTopicData) error) error
}

func decodeJSON[T any](dec func(interface{}) error) (T, error) {
	var zero T
	var wrapped wrapperspb.StringValue
	if err := dec(&wrapped); err != nil {
		return zero, err
	}
	var out T
	if wrapped.Value == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(wrapped.Value), &out); err != nil {
		return zero, fmt.Errorf("rpc: failed to decode request payload: %w", err)
	}
	return out, nil
}

func boolReply(v bool) *wrapperspb.BoolValue { return wrapperspb.Bool(v) }

func _AddPlotIfNotExists_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req, err := decodeJSON[AddPlotRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		added, err := srv.(Server).AddPlotIfNotExists(ctx, req)
		return boolReply(added), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/AddPlotIfNotExists"}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		added, err := srv.(Server).AddPlotIfNotExists(ctx, r.(AddPlotRequest))
		return boolReply(added), err
	}
	return interceptor(ctx, req, info, handler)
}

func _CutPlotWithinXRange_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req, err := decodeJSON[CutPlotRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).CutPlotWithinXRange(ctx, req)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CutPlotWithinXRange"}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		err := srv.(Server).CutPlotWithinXRange(ctx, r.(CutPlotRequest))
		return boolReply(err == nil), err
	}
	return interceptor(ctx, req, info, handler)
}

func _OffsetPlot_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req, err := decodeJSON[OffsetPlotRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).OffsetPlot(ctx, req)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/OffsetPlot"}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		err := srv.(Server).OffsetPlot(ctx, r.(OffsetPlotRequest))
		return boolReply(err == nil), err
	}
	return interceptor(ctx, req, info, handler)
}

func _ConnectMqtt_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req, err := decodeJSON[ConnectMqttRequest](dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).ConnectMqtt(ctx, req)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ConnectMqtt"}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		err := srv.(Server).ConnectMqtt(ctx, r.(ConnectMqttRequest))
		return boolReply(err == nil), err
	}
	return interceptor(ctx, req, info, handler)
}

func _DisconnectMqtt_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	var discard wrapperspb.StringValue
	if err := dec(&discard); err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).DisconnectMqtt(ctx)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/DisconnectMqtt"}
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		err := srv.(Server).DisconnectMqtt(ctx)
		return boolReply(err == nil), err
	}
	return interceptor(ctx, nil, info, handler)
}

func _StartDiscovery_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	var wrapped wrapperspb.StringValue
	if err := dec(&wrapped); err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).StartDiscovery(ctx, wrapped.Value)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/StartDiscovery"}
	handler := func(ctx context.Context, r interface{}) (interface{}, error) {
		err := srv.(Server).StartDiscovery(ctx, r.(*wrapperspb.StringValue).Value)
		return boolReply(err == nil), err
	}
	return interceptor(ctx, &wrapped, info, handler)
}

func _StopDiscovery_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	var discard wrapperspb.StringValue
	if err := dec(&discard); err != nil {
		return nil, err
	}
	if interceptor == nil {
		err := srv.(Server).StopDiscovery(ctx)
		return boolReply(err == nil), err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/StopDiscovery"}
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		err := srv.(Server).StopDiscovery(ctx)
		return boolReply(err == nil), err
	}
	return interceptor(ctx, nil, info, handler)
}

// _StreamLiveData_Handler adapts a grpc.ServerStream to the StreamLiveData
// callback's send-one-message signature.
func _StreamLiveData_Handler(srv interface{}, stream grpc.ServerStream) error {
	var filter wrapperspb.StringValue
	if err := stream.RecvMsg(&filter); err != nil {
		return err
	}
	return srv.(Server).StreamLiveData(filter.Value, func(item mqttlive.MqttTopicData) error {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("rpc: failed to encode live-data item: %w", err)
		}
		return stream.SendMsg(wrapperspb.String(string(payload)))
	})
}

// ServiceDesc is the hand-built service description registered with a
// *grpc.Server via grpc.RegisterService(desc, impl).
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddPlotIfNotExists", Handler: _AddPlotIfNotExists_Handler},
		{MethodName: "CutPlotWithinXRange", Handler: _CutPlotWithinXRange_Handler},
		{MethodName: "OffsetPlot", Handler: _OffsetPlot_Handler},
		{MethodName: "ConnectMqtt", Handler: _ConnectMqtt_Handler},
		{MethodName: "DisconnectMqtt", Handler: _DisconnectMqtt_Handler},
		{MethodName: "StartDiscovery", Handler: _StartDiscovery_Handler},
		{MethodName: "StopDiscovery", Handler: _StopDiscovery_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamLiveData",
			Handler:       _StreamLiveData_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "internal/mqttlive/rpc/rpc.go",
}

// RegisterService registers impl on grpcServer using ServiceDesc.
func RegisterService(grpcServer *grpc.Server, impl Server) {
	grpcServer.RegisterService(&ServiceDesc, impl)
}
