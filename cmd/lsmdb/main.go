package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lsmdb/internal/config"
	httpapi "lsmdb/internal/http"
	"lsmdb/pkg/cluster"
	"lsmdb/pkg/coverage"
	"lsmdb/pkg/types"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Default()

	fmt.Printf("LSMDB starting (coverage planner). DataDir=%s\n", cfg.Storage.DataDir)

	localAddr := os.Getenv("LSMDB_NODE_ADDR")
	if localAddr == "" {
		fmt.Println("LSMDB_NODE_ADDR is not set")
		os.Exit(1)
	}

	zkServersEnv := os.Getenv("ZK_SERVERS")
	if zkServersEnv == "" {
		fmt.Println("ZK_SERVERS is not set")
		os.Exit(1)
	}
	zkServers := strings.Split(zkServersEnv, ",")

	membership, err := cluster.NewZKMembership(zkServers, cfg.Coverage.ZKRootPath, localAddr)
	if err != nil {
		fmt.Printf("Failed to connect to ZooKeeper: %v\n", err)
		os.Exit(1)
	}
	defer membership.Close()

	if err := membership.RegisterSelf(); err != nil {
		fmt.Printf("Failed to register node in ZooKeeper: %v\n", err)
		os.Exit(1)
	}

	ring, err := membership.BuildPartitionRing(cfg.Coverage.NumPartitions)
	if err != nil {
		fmt.Printf("Failed to build partition ring from ZooKeeper: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Initial partition ring:", ring.String())

	localNode := coverage.VnodeOwner{Node: types.NodeID(localAddr)}

	server := httpapi.NewServer(nil, "8080")
	server.SetCoverage(httpapi.NewCoverageEndpoint(ring, membership, localNode))

	if err := server.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}

	go watchPartitionRing(ctx, membership, ring, cfg.Coverage.NumPartitions)

	fmt.Println("HTTP server is running on :8080 (coverage planner)")
	fmt.Println("Press Ctrl+C to stop...")

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		fmt.Printf("Error stopping server: %v\n", err)
	}

	fmt.Println("LSMDB stopped")
	os.Exit(0)
}

// watchPartitionRing periodically rebuilds the partition assignment from
// ZooKeeper membership, so ring ownership follows node join/leave events
// without requiring a server restart.
func watchPartitionRing(ctx context.Context, membership *cluster.ZKMembership, ring *cluster.PartitionRing, numPartitions int) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fresh, err := membership.BuildPartitionRing(numPartitions)
			if err != nil {
				fmt.Printf("[coverage] failed to refresh partition ring: %v\n", err)
				continue
			}
			ring.AssignNodes(ownerNames(fresh))
		}
	}
}

func ownerNames(r *cluster.PartitionRing) []string {
	seen := map[string]struct{}{}
	names := make([]string, 0)
	for _, o := range r.Owners() {
		if o == "" {
			continue
		}
		if _, ok := seen[string(o)]; ok {
			continue
		}
		seen[string(o)] = struct{}{}
		names = append(names, string(o))
	}
	return names
}
