// Command dnetd runs the same in-process node wiring as dnetsim behind a
// long-lived gRPC front end, so an external process can inject messages
// into a running simulation instead of the whole run being driven from a
// single command-line invocation. Grounded on the teacher's
// consumer.Service, which is also "an implementation of ShardServer"
// layered over locally-driven state; the allocator.State/task.Group
// machinery that drives consumer.Service's own lifecycle isn't part of
// this module; wiring lives directly in main instead.
package main

import (
	"net"
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/Lockheed-Rustin/drone-network-sub000/config"
	"github.com/Lockheed-Rustin/drone-network-sub000/endpoint"
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/sim/drone"
)

var Config = new(struct {
	Topology string `long:"topology" required:"true" description:"Path to a topology YAML document"`
	Address  string `long:"address" default:":8080" description:"Address to serve the Simulation gRPC service on"`
	Log      struct {
		Level string `long:"level" env:"LEVEL" default:"info" description:"Logging level (debug, info, warn, error)"`
	} `group:"Logging" namespace:"log" env-namespace:"LOG"`
})

func run() error {
	if lvl, err := log.ParseLevel(Config.Log.Level); err == nil {
		log.SetLevel(lvl)
	}

	var topo, err = config.LoadTopology(Config.Topology)
	if err != nil {
		return err
	}

	type wire struct {
		control chan endpoint.Command
		packets chan protocol.Packet
		events  chan endpoint.Event
	}
	var wires = make(map[protocol.NodeID]*wire, len(topo.Nodes))
	for _, n := range topo.Nodes {
		wires[n.ID] = &wire{
			control: make(chan endpoint.Command, 16),
			packets: make(chan protocol.Packet, 256),
			events:  make(chan endpoint.Event, 256),
		}
	}

	for _, n := range topo.Nodes {
		var neighbors = make(map[protocol.NodeID]chan<- protocol.Packet, len(n.Neighbors))
		for _, nb := range n.Neighbors {
			neighbors[nb] = wires[nb].packets
		}

		if n.NodeType() == protocol.Drone {
			var d = drone.New(drone.Options{ID: n.ID, PDR: n.PDR, Recv: wires[n.ID].packets, Send: neighbors}, int64(n.ID))
			go d.Run()
		} else {
			var e = endpoint.NewEndpoint(n.ID, n.NodeType(), neighbors, wires[n.ID].control, wires[n.ID].packets, wires[n.ID].events)
			go e.Run()
		}
	}
	for id, w := range wires {
		go func(id protocol.NodeID, events <-chan endpoint.Event) {
			for range events {
				// Drained so a full channel never blocks an endpoint's event loop;
				// dnetd serves control, not observability.
			}
		}(id, w.events)
	}

	var control = make(map[protocol.NodeID]chan<- endpoint.Command, len(wires))
	for id, w := range wires {
		control[id] = w.control
	}

	var lis, listenErr = net.Listen("tcp", Config.Address)
	if listenErr != nil {
		return listenErr
	}
	var srv = grpc.NewServer()
	srv.RegisterService(&serviceDesc, &simulationServer{control: control})

	log.WithField("address", Config.Address).Info("dnetd: serving")
	return srv.Serve(lis)
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
	if err := run(); err != nil {
		log.WithError(err).Fatal("dnetd: exiting")
	}
}
