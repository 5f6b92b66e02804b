// Package registry records node liveness and channel-endpoint addresses in
// Etcd for a multi-process simulation (one OS process per node, as opposed
// to the in-process channel simulation the endpoint/drone unit tests use).
// It adapts the teacher's consumer.Resolver pattern of observing a watched
// key prefix, without keeping a local membership view, trading the
// allocator.KeySpace abstraction for direct use of clientv3 since there is
// no sharded-assignment concept here, only flat node liveness.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// keyPrefix namespaces every node's registration key.
const keyPrefix = "/drone-network/nodes/"

// Member is one node's advertised liveness record: its role and the
// address an external process can dial to reach its packet channel.
type Member struct {
	ID      protocol.NodeID   `json:"id"`
	Type    protocol.NodeType `json:"type"`
	Address string            `json:"address"`
}

func key(id protocol.NodeID) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// Registry maintains this process's own lease-backed registration. It keeps
// no local copy of the membership: List and Watch read it from Etcd.
type Registry struct {
	cli     *clientv3.Client
	leaseID clientv3.LeaseID
}

// New returns a Registry backed by |cli|.
func New(cli *clientv3.Client) *Registry {
	return &Registry{cli: cli}
}

// Register advertises |m| under a lease with |ttlSeconds| and starts
// clientv3's background keep-alive, which renews the lease until |ctx| is
// cancelled. It returns once the lease is granted, the record is written and
// the keep-alive has started, or an error if any of those fails; it does not
// wait for a keep-alive response.
func (r *Registry) Register(ctx context.Context, m Member, ttlSeconds int64) error {
	var lease, err = r.cli.Grant(ctx, ttlSeconds)
	if err != nil {
		return errors.Wrap(err, "granting registry lease")
	}
	r.leaseID = lease.ID

	var b, marshalErr = json.Marshal(m)
	if marshalErr != nil {
		return errors.Wrap(marshalErr, "marshaling member record")
	}
	if _, err := r.cli.Put(ctx, key(m.ID), string(b), clientv3.WithLease(lease.ID)); err != nil {
		return errors.Wrap(err, "registering member")
	}

	var keepAlive, kaErr = r.cli.KeepAlive(ctx, lease.ID)
	if kaErr != nil {
		return errors.Wrap(kaErr, "starting lease keep-alive")
	}
	go func() {
		for range keepAlive {
			// Drain keep-alive responses; clientv3 requires the channel be
			// consumed or the lease silently stops renewing.
		}
		log.WithField("node", m.ID).Info("registry: keep-alive stopped")
	}()
	return nil
}

// List returns every member currently registered.
func (r *Registry) List(ctx context.Context) ([]Member, error) {
	var resp, err = r.cli.Get(ctx, keyPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(err, "listing registry members")
	}
	var out = make([]Member, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var m Member
		if err := json.Unmarshal(kv.Value, &m); err != nil {
			log.WithError(err).WithField("key", string(kv.Key)).Warn("registry: skipping malformed member record")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MembershipEvent describes one membership change observed by Watch.
type MembershipEvent struct {
	Member Member
	Left   bool // True if the member's registration expired or was removed.
}

// Watch streams membership changes under the registry prefix until |ctx|
// is cancelled, mirroring the observer-callback shape of the teacher's
// consumer.Resolver.updateResolutions (here delivered over a channel
// instead of invoked as a callback, since there is no shared KeySpace
// mutex to serialize under).
func (r *Registry) Watch(ctx context.Context) <-chan MembershipEvent {
	var out = make(chan MembershipEvent, 16)
	var watch = r.cli.Watch(ctx, keyPrefix, clientv3.WithPrefix())

	go func() {
		defer close(out)
		for resp := range watch {
			for _, ev := range resp.Events {
				var left = ev.Type == clientv3.EventTypeDelete
				var m Member
				if !left {
					if err := json.Unmarshal(ev.Kv.Value, &m); err != nil {
						log.WithError(err).Warn("registry: skipping malformed watch event")
						continue
					}
				}
				select {
				case out <- MembershipEvent{Member: m, Left: left}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
