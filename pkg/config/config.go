// Package config loads zakros's configuration file and CLI flag layer
// into a single Config, the way pkg/log's Config/Init pair is the only
// public surface callers need from that package (spec section 6 treats
// configuration as a peripheral external collaborator: only the resulting
// values matter, not how they got there).
package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config holds every option zakros accepts from its config file or CLI
// flags.
type Config struct {
	Bind          string
	Port          int
	MaxClients    int
	Dir           string
	WorkerThreads int
	NodeID        int
	ClusterAddrs  []string
	RaftEnabled   bool
	RaftStorage   string // "disk" or "memory"
}

// Default returns the option defaults named in spec section 6.
func Default() Config {
	return Config{
		Bind:          "0.0.0.0",
		Port:          6379,
		MaxClients:    10000,
		Dir:           "./data",
		WorkerThreads: runtime.GOMAXPROCS(0),
		NodeID:        0,
		ClusterAddrs:  nil,
		RaftEnabled:   true,
		RaftStorage:   "disk",
	}
}

// keys lists every option name accepted in a config file; any other key is
// an error.
var keys = map[string]bool{
	"bind": true, "port": true, "maxclients": true, "dir": true,
	"worker-threads": true, "node-id": true, "cluster-addrs": true,
	"raft-enabled": true, "raft-storage": true,
}

// LoadFile parses a config file of "key value" lines (blank lines and
// lines starting with '#' are ignored) and applies them on top of cfg.
// File options are overridden later by any CLI flag the caller explicitly
// set.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return fmt.Errorf("malformed config line: %q", line)
		}
		key := strings.TrimSpace(fields[0])
		val := strings.TrimSpace(fields[1])
		if !keys[key] {
			return fmt.Errorf("unknown config option %q", key)
		}
		if err := apply(cfg, key, val); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
	}
	return scanner.Err()
}

// Set applies one CLI flag's value to cfg, using the same option names and
// validation as LoadFile.
func Set(cfg *Config, key, val string) error {
	if !keys[key] {
		return fmt.Errorf("unknown option %q", key)
	}
	return apply(cfg, key, val)
}

func apply(cfg *Config, key, val string) error {
	switch key {
	case "bind":
		cfg.Bind = val
	case "port":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		cfg.Port = n
	case "maxclients":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		cfg.MaxClients = n
	case "dir":
		cfg.Dir = val
	case "worker-threads":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		cfg.WorkerThreads = n
	case "node-id":
		n, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		cfg.NodeID = n
	case "cluster-addrs":
		cfg.ClusterAddrs = strings.Fields(val)
	case "raft-enabled":
		switch val {
		case "yes":
			cfg.RaftEnabled = true
		case "no":
			cfg.RaftEnabled = false
		default:
			return fmt.Errorf("must be yes or no, got %q", val)
		}
	case "raft-storage":
		if val != "disk" && val != "memory" {
			return fmt.Errorf("must be disk or memory, got %q", val)
		}
		cfg.RaftStorage = val
	}
	return nil
}
