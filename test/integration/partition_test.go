// +build integration

// Package integration holds chaos tests against a live Kubernetes
// deployment, selecting pods by their etcd, drone, client and server labels.
// Each test applies one urkel partition, holds it for a fixed time and then
// removes it; the tests make no assertions about how the deployment behaves
// while partitioned. They require a real cluster and are excluded from
// normal test runs by the integration build tag.
package integration

import (
	"testing"
	"time"

	"github.com/jgraettinger/urkel"
)

var (
	etcdPodSelector   = "app=etcd"
	dronePodSelector  = "app.kubernetes.io/component=drone"
	clientPodSelector = "app.kubernetes.io/component=client"
	serverPodSelector = "app.kubernetes.io/component=server"
)

// TestPartitionWithinEtcdCluster splits the Etcd pods into two halves for a
// minute, the scenario in which forwarding along already-cached paths is
// expected to continue while liveness registration is unreachable.
func TestPartitionWithinEtcdCluster(t *testing.T) {
	var pods = urkel.FetchPods(t, "default", etcdPodSelector)

	var fs = urkel.NewFaultSet(t)
	defer fs.RemoveAll()

	fs.Partition(pods[:len(pods)/2], pods[len(pods)/2:], urkel.Drop)
	time.Sleep(time.Minute)
}

// TestPartitionDroneFromEtcd drops one drone's registry connectivity while
// leaving its packet-forwarding links to neighbors intact; forwarding
// through it must be unaffected since routing never consults the registry.
func TestPartitionDroneFromEtcd(t *testing.T) {
	var etcds = urkel.FetchPods(t, "default", etcdPodSelector)
	var drones = urkel.FetchPods(t, "default", dronePodSelector)

	var fs = urkel.NewFaultSet(t)
	defer fs.RemoveAll()

	fs.Partition(etcds, drones[:1], urkel.Drop)
	time.Sleep(time.Minute)
}

// TestActivePartitionClientFromDrones actively rejects (rather than
// silently drops) one client's links to its drone neighbors, which should
// surface as ErrorInRouting NACKs and trigger flood-driven rediscovery
// once the partition heals.
func TestActivePartitionClientFromDrones(t *testing.T) {
	var drones = urkel.FetchPods(t, "default", dronePodSelector)
	var clients = urkel.FetchPods(t, "default", clientPodSelector)

	var fs = urkel.NewFaultSet(t)
	defer fs.RemoveAll()

	fs.Partition(drones, clients[:1], urkel.Reject)
	time.Sleep(10 * time.Second)
}

// TestActivePartitionServerFromDrones is the server-side counterpart of
// TestActivePartitionClientFromDrones.
func TestActivePartitionServerFromDrones(t *testing.T) {
	var drones = urkel.FetchPods(t, "default", dronePodSelector)
	var servers = urkel.FetchPods(t, "default", serverPodSelector)

	var fs = urkel.NewFaultSet(t)
	defer fs.RemoveAll()

	fs.Partition(drones, servers[:1], urkel.Reject)
	time.Sleep(10 * time.Second)
}

// TestActivePartitionDrones splits the drone mesh itself in half, forcing
// every cross-half path to fail over to whatever drones remain reachable.
func TestActivePartitionDrones(t *testing.T) {
	var pods = urkel.FetchPods(t, "default", dronePodSelector)

	var fs = urkel.NewFaultSet(t)
	defer fs.RemoveAll()

	fs.Partition(pods[:len(pods)/2], pods[len(pods)/2:], urkel.Reject)
	time.Sleep(10 * time.Second)
}
