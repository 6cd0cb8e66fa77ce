package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cuemby/zakros/pkg/cluster"
	"github.com/cuemby/zakros/pkg/config"
	"github.com/cuemby/zakros/pkg/dispatcher"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/log"
	"github.com/cuemby/zakros/pkg/metrics"
	"github.com/cuemby/zakros/pkg/pubsub"
	"github.com/cuemby/zakros/pkg/server"
	"github.com/cuemby/zakros/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "zakros [CONFIG_FILE]",
	Short:   "Zakros - an in-memory key-value store replicated over Raft",
	Args:    cobra.MaximumNArgs(1),
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"zakros version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.Flags()
	flags.String("bind", "", "address to bind the client port on (default 0.0.0.0)")
	flags.Int("port", 0, "client port (default 6379, 0 picks an ephemeral port only when explicitly set)")
	flags.Int("maxclients", 0, "maximum concurrent client connections (default 10000)")
	flags.String("dir", "", "data directory (default ./data)")
	flags.Int("worker-threads", 0, "GOMAXPROCS override (default CPU count)")
	flags.Int("node-id", -1, "this node's index into cluster-addrs (default 0)")
	flags.String("cluster-addrs", "", "whitespace-separated host:port list, index = node id")
	flags.String("raft-enabled", "", "yes|no (default yes)")
	flags.String("raft-storage", "", "disk|memory (default disk)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "output logs in JSON format")
	flags.String("metrics-addr", "127.0.0.1:9090", "address for the /metrics, /health, /ready, /live HTTP endpoints")
}

func run(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})

	cfg := config.Default()
	if len(args) == 1 {
		if err := config.LoadFile(args[0], &cfg); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	runtime.GOMAXPROCS(cfg.WorkerThreads)

	ks := keyspace.New()
	reg := pubsub.New()

	var node *cluster.Node
	if cfg.RaftEnabled {
		if len(cfg.ClusterAddrs) == 0 {
			return fmt.Errorf("config error: cluster-addrs is required when raft-enabled is yes")
		}
		storageKind := storage.KindDurable
		if cfg.RaftStorage == "memory" {
			storageKind = storage.KindVolatile
		}
		var err error
		node, err = cluster.New(cluster.Config{
			NodeID:         cfg.NodeID,
			DataDir:        cfg.Dir,
			ClusterAddrs:   cfg.ClusterAddrs,
			StorageKind:    storageKind,
			SnapshotRetain: 2,
		}, ks)
		if err != nil {
			return fmt.Errorf("start raft node: %w", err)
		}
		log.WithNodeID(cfg.NodeID).Info().Strs("cluster_addrs", cfg.ClusterAddrs).Msg("raft node started")
	}

	shuttingDown := make(chan struct{})
	var shutdownOnce bool
	onShutdown := func() {
		if !shutdownOnce {
			shutdownOnce = true
			close(shuttingDown)
		}
	}

	d := dispatcher.New(ks, node, cfg.NodeID, cfg.ClusterAddrs, reg, onShutdown)

	bindAddr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	srv := server.New(bindAddr, cfg.MaxClients, d)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("bind client port: %w", err)
	}

	collector := metrics.NewCollector(node, ks, reg)
	collector.SetVersion(Version)
	if node != nil {
		collector.Start()
	}

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", collector.HealthHandler())
	mux.Handle("/ready", collector.ReadyHandler())
	mux.Handle("/live", collector.LivenessHandler())
	metricsServer := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case <-shuttingDown:
		log.Info("shutdown requested via SHUTDOWN command")
	case err := <-errCh:
		log.Errorf("server error", err)
		shutdown(srv, collector, node, metricsServer)
		return fmt.Errorf("server error: %w", err)
	}

	shutdown(srv, collector, node, metricsServer)
	return nil
}

func shutdown(srv *server.Server, collector *metrics.Collector, node *cluster.Node, metricsServer *http.Server) {
	_ = srv.Close()
	if node != nil {
		collector.Stop()
		if err := node.Shutdown(); err != nil {
			log.Errorf("raft shutdown error", err)
		}
	}
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(ctxShutdown)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	type override struct {
		flag string
		key  string
	}
	overrides := []override{
		{"bind", "bind"}, {"port", "port"}, {"maxclients", "maxclients"},
		{"dir", "dir"}, {"worker-threads", "worker-threads"}, {"node-id", "node-id"},
		{"cluster-addrs", "cluster-addrs"}, {"raft-enabled", "raft-enabled"},
		{"raft-storage", "raft-storage"},
	}
	for _, o := range overrides {
		f := cmd.Flags().Lookup(o.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := config.Set(cfg, o.key, f.Value.String()); err != nil {
			return err
		}
	}
	return nil
}
