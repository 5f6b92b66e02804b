package main

import (
	"context"
	"encoding/json"

	"golang.org/x/net/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/Lockheed-Rustin/drone-network-sub000/endpoint"
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// addTrace appends a lazily-formatted line to the active request's trace,
// if the RPC context was started under one (eg by the /debug/requests
// handler golang.org/x/net/trace registers). A no-op otherwise.
func addTrace(ctx context.Context, format string, args ...interface{}) {
	if tr, ok := trace.FromContext(ctx); ok {
		tr.LazyPrintf(format, args...)
	}
}

// jsonCodec marshals RPC payloads with encoding/json instead of protobuf:
// this module hand-authors its wire types the way protocol/wire.go does
// for application messages, rather than running a protoc code generation
// step no example repo's toolchain can be invoked to reproduce here.
type jsonCodec struct{}

func (jsonCodec) Name() string                           { return "json" }
func (jsonCodec) Marshal(v interface{}) ([]byte, error)   { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v interface{}) error { return json.Unmarshal(b, v) }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Clients must dial with grpc.CallContentSubtype("json") to select this
// codec; grpc falls back to its built-in proto codec otherwise.

// InjectRequest asks the service to submit a Message from one simulated
// node to another.
type InjectRequest struct {
	From protocol.NodeID
	To   protocol.NodeID
	Kind protocol.MessageKind
	Text string
}

// InjectResponse acknowledges an InjectRequest was submitted to the
// named node's endpoint.
type InjectResponse struct{}

// ListRequest has no fields; it asks for the set of running node IDs.
type ListRequest struct{}

// ListResponse names every node currently wired into the simulation.
type ListResponse struct {
	Nodes []protocol.NodeID
}

// simulationServer implements the hand-rolled Simulation gRPC service
// against the in-process node wiring cmd/dnetd constructs at startup,
// the gRPC-facing counterpart of cmd/dnetsim's --send flag.
type simulationServer struct {
	control map[protocol.NodeID]chan<- endpoint.Command
}

func (s *simulationServer) inject(ctx context.Context, req *InjectRequest) (*InjectResponse, error) {
	addTrace(ctx, "inject from %d to %d (%d bytes)", req.From, req.To, len(req.Text))

	var ch, ok = s.control[req.From]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no such node: %d", req.From)
	}
	select {
	case ch <- endpoint.SendMessage{
		Body:        protocol.Message{Kind: req.Kind, Payload: []byte(req.Text)},
		Destination: req.To,
	}:
	default:
		return nil, status.Errorf(codes.ResourceExhausted, "node %d control queue is full", req.From)
	}
	return &InjectResponse{}, nil
}

func (s *simulationServer) list(context.Context, *ListRequest) (*ListResponse, error) {
	var nodes = make([]protocol.NodeID, 0, len(s.control))
	for id := range s.control {
		nodes = append(nodes, id)
	}
	return &ListResponse{Nodes: nodes}, nil
}

// serviceDesc is hand-written in place of a protoc-generated one, the
// minimum grpc.ServiceDesc shape a unary handler needs: a name, the two
// methods above, and no streams.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "drone.Simulation",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Inject",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				var req InjectRequest
				if err := dec(&req); err != nil {
					return nil, err
				}
				return srv.(*simulationServer).inject(ctx, &req)
			},
		},
		{
			MethodName: "List",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				var req ListRequest
				if err := dec(&req); err != nil {
					return nil, err
				}
				return srv.(*simulationServer).list(ctx, &req)
			},
		},
	},
}
