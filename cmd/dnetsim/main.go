// Command dnetsim drives an in-process simulation of a drone network: it
// loads a topology document, wires one endpoint.Endpoint or sim/drone.Drone
// per declared node over Go channels (no real network transport involved),
// and injects messages a caller names on the command line, logging every
// endpoint.Event as it occurs. Structured the way the teacher's
// wordcountctl wires go-flags subcommands onto a shared Config, trading its
// gRPC-dial-per-command shape for direct construction since there is no
// separate server process to dial here.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/config"
	"github.com/Lockheed-Rustin/drone-network-sub000/endpoint"
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/sim/drone"
)

// Config is the process-wide flag set every subcommand shares, in the
// shape of the teacher's own grouped, namespaced Config var.
var Config = new(struct {
	Log struct {
		Level string `long:"level" env:"LEVEL" default:"info" description:"Logging level (debug, info, warn, error)"`
	} `group:"Logging" namespace:"log" env-namespace:"LOG"`
})

type cmdRun struct {
	Topology string        `long:"topology" required:"true" description:"Path to a topology YAML document"`
	Duration time.Duration `long:"duration" default:"2s" description:"How long to run the simulation before exiting"`
	Send     []string      `long:"send" description:"Inject a message, repeatable: FROM:TO:TEXT"`
}

type wire struct {
	control chan endpoint.Command
	packets chan protocol.Packet
	events  chan endpoint.Event
}

func (cmd *cmdRun) Execute([]string) error {
	if lvl, err := log.ParseLevel(Config.Log.Level); err == nil {
		log.SetLevel(lvl)
	}

	var topo, err = config.LoadTopology(cmd.Topology)
	if err != nil {
		return errors.Wrap(err, "loading topology")
	}

	var wires = make(map[protocol.NodeID]*wire, len(topo.Nodes))
	for _, n := range topo.Nodes {
		wires[n.ID] = &wire{
			control: make(chan endpoint.Command, 16),
			packets: make(chan protocol.Packet, 256),
			events:  make(chan endpoint.Event, 256),
		}
	}

	var endpoints = make(map[protocol.NodeID]*endpoint.Endpoint)
	var drones = make(map[protocol.NodeID]*drone.Drone)

	for _, n := range topo.Nodes {
		var neighbors = make(map[protocol.NodeID]chan<- protocol.Packet, len(n.Neighbors))
		for _, nb := range n.Neighbors {
			neighbors[nb] = wires[nb].packets
		}

		switch n.NodeType() {
		case protocol.Drone:
			drones[n.ID] = drone.New(drone.Options{
				ID:   n.ID,
				PDR:  n.PDR,
				Recv: wires[n.ID].packets,
				Send: neighbors,
			}, int64(n.ID))
		default:
			endpoints[n.ID] = endpoint.NewEndpoint(
				n.ID, n.NodeType(), neighbors,
				wires[n.ID].control, wires[n.ID].packets, wires[n.ID].events,
			)
		}
	}

	for id, d := range drones {
		go d.Run()
		log.WithField("node", id).Info("dnetsim: drone running")
	}
	for id, e := range endpoints {
		go e.Run()
		log.WithField("node", id).Info("dnetsim: endpoint running")
	}
	for id, w := range wires {
		go logEvents(id, w.events)
	}

	time.Sleep(200 * time.Millisecond) // Let initial floods settle before injecting traffic.

	for _, spec := range cmd.Send {
		var m, err = parseSend(spec)
		if err != nil {
			return err
		}
		var w, ok = wires[m.from]
		if !ok {
			return errors.Errorf("dnetsim: unknown sender node %d", m.from)
		}
		w.control <- endpoint.SendMessage{
			Body:        protocol.Message{Kind: protocol.ClientKind, Payload: []byte(m.text)},
			Destination: m.to,
		}
	}

	time.Sleep(cmd.Duration)

	for _, w := range wires {
		select {
		case w.control <- endpoint.Return{}:
		default:
		}
	}
	return nil
}

func logEvents(id protocol.NodeID, events <-chan endpoint.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case endpoint.MessageAssembled:
			log.WithFields(log.Fields{"node": id, "from": e.From, "to": e.To}).Info("dnetsim: message assembled")
		case endpoint.MessageFragmented:
			log.WithFields(log.Fields{"node": id, "from": e.From, "to": e.To}).Debug("dnetsim: message fragmented")
		default:
			log.WithField("node", id).Debug("dnetsim: event")
		}
	}
}

type sendSpec struct {
	from protocol.NodeID
	to   protocol.NodeID
	text string
}

// parseSend parses a FROM:TO:TEXT command-line argument.
func parseSend(spec string) (sendSpec, error) {
	var parts = strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return sendSpec{}, errors.Errorf("dnetsim: --send must be FROM:TO:TEXT, got %q", spec)
	}
	var from, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return sendSpec{}, errors.Wrapf(err, "dnetsim: parsing sender of %q", spec)
	}
	var to uint64
	if to, err = strconv.ParseUint(parts[1], 10, 64); err != nil {
		return sendSpec{}, errors.Wrapf(err, "dnetsim: parsing destination of %q", spec)
	}
	return sendSpec{from: protocol.NodeID(from), to: protocol.NodeID(to), text: parts[2]}, nil
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	var _, err = parser.AddCommand("run", "Run a simulation",
		"Load a topology and run an in-process simulation for a fixed duration", &cmdRun{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}
