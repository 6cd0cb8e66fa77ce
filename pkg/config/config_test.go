package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0", cfg.Bind)
	assert.Equal(t, 6379, cfg.Port)
	assert.Equal(t, 10000, cfg.MaxClients)
	assert.Equal(t, "./data", cfg.Dir)
	assert.Equal(t, 0, cfg.NodeID)
	assert.True(t, cfg.RaftEnabled)
	assert.Equal(t, "disk", cfg.RaftStorage)
	assert.Nil(t, cfg.ClusterAddrs)
}

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zakros.conf")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFileAppliesOptions(t *testing.T) {
	path := writeConfigFile(t, "# comment\n\nbind 127.0.0.1\nport 7000\ncluster-addrs 127.0.0.1:7000 127.0.0.1:7001 127.0.0.1:7002\nraft-enabled no\n")
	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, "127.0.0.1", cfg.Bind)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, []string{"127.0.0.1:7000", "127.0.0.1:7001", "127.0.0.1:7002"}, cfg.ClusterAddrs)
	assert.False(t, cfg.RaftEnabled)
}

func TestLoadFileRejectsUnknownKey(t *testing.T) {
	path := writeConfigFile(t, "bogus-option 1\n")
	cfg := Default()
	err := LoadFile(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config option")
}

func TestLoadFileRejectsMalformedLine(t *testing.T) {
	path := writeConfigFile(t, "bind\n")
	cfg := Default()
	err := LoadFile(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed config line")
}

func TestLoadFileRejectsMissingFile(t *testing.T) {
	cfg := Default()
	err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"), &cfg)
	require.Error(t, err)
}

func TestSetValidatesRaftStorage(t *testing.T) {
	cfg := Default()
	require.NoError(t, Set(&cfg, "raft-storage", "memory"))
	assert.Equal(t, "memory", cfg.RaftStorage)

	err := Set(&cfg, "raft-storage", "tape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be disk or memory")
}

func TestSetValidatesRaftEnabled(t *testing.T) {
	cfg := Default()
	err := Set(&cfg, "raft-enabled", "sure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be yes or no")
}

func TestSetRejectsUnknownKey(t *testing.T) {
	cfg := Default()
	err := Set(&cfg, "not-a-real-flag", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown option")
}

func TestSetParsesIntegerOptions(t *testing.T) {
	cfg := Default()
	require.NoError(t, Set(&cfg, "maxclients", "500"))
	assert.Equal(t, 500, cfg.MaxClients)

	err := Set(&cfg, "maxclients", "not-a-number")
	require.Error(t, err)
}
