package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
)

func noFlags(string) bool { return false }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func flagsSet(names ...string) func(string) bool {
	return func(n string) bool {
		for _, name := range names {
			if name == n {
				return true
			}
		}
		return false
	}
}

func writeConfigFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	data := `
listen:
  - /ip4/127.0.0.1/tcp/7001
conn_mgr:
  min_connections: 2
  max_connections: 8
  poll_interval: 1s
  auto_dial_interval: 5s
  auto_dial: true
log:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestBuildConfig_Defaults(t *testing.T) {
	cfg, err := buildConfig(&runOptions{}, noFlags, envMap(nil))
	require.NoError(t, err)

	assert.Len(t, cfg.Listen, 3)
	assert.True(t, cfg.Control.Enable)
	assert.Equal(t, "127.0.0.1:9190", cfg.Control.Addr)
	assert.Equal(t, 25, cfg.ConnMgr.MaxConnections)
}

func TestBuildConfig_Precedence(t *testing.T) {
	path := writeConfigFile(t)

	// 仅配置文件
	cfg, err := buildConfig(&runOptions{configFile: path}, noFlags, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/7001"}, cfg.Listen)
	assert.Equal(t, 8, cfg.ConnMgr.MaxConnections)
	assert.Equal(t, "warn", cfg.Log.Level)

	// 环境变量覆盖配置文件
	env := envMap(map[string]string{
		"G3NODE_LISTEN":          "/ip4/127.0.0.1/tcp/7002, /ip4/127.0.0.1/tcp/7003",
		"G3NODE_MAX_CONNECTIONS": "12",
		"G3NODE_LOG_LEVEL":       "debug",
	})
	cfg, err = buildConfig(&runOptions{configFile: path}, noFlags, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/7002", "/ip4/127.0.0.1/tcp/7003"}, cfg.Listen)
	assert.Equal(t, 12, cfg.ConnMgr.MaxConnections)
	assert.Equal(t, 2, cfg.ConnMgr.MinConnections)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 命令行参数覆盖环境变量
	o := &runOptions{
		configFile: path,
		listen:     []string{"/ip4/127.0.0.1/tcp/7004"},
		maxConns:   3,
		noControl:  true,
	}
	cfg, err = buildConfig(o, flagsSet("listen", "max-conns", "no-control"), env)
	require.NoError(t, err)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/7004"}, cfg.Listen)
	assert.Equal(t, 3, cfg.ConnMgr.MaxConnections)
	assert.False(t, cfg.Control.Enable)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestBuildConfig_Errors(t *testing.T) {
	tests := map[string]struct {
		opts    *runOptions
		changed func(string) bool
		env     map[string]string
	}{
		"missing file":   {opts: &runOptions{configFile: "/nonexistent/node.yaml"}, changed: noFlags},
		"bad env int":    {opts: &runOptions{}, changed: noFlags, env: map[string]string{"G3NODE_MIN_CONNECTIONS": "many"}},
		"bad env peer":   {opts: &runOptions{}, changed: noFlags, env: map[string]string{"G3NODE_KNOWN_PEERS": "nobody"}},
		"invalid policy": {opts: &runOptions{minConns: 9, maxConns: 2}, changed: flagsSet("min-conns", "max-conns")},
		"bad listen":     {opts: &runOptions{listen: []string{"localhost:80"}}, changed: flagsSet("listen")},
		"peer no addr":   {opts: &runOptions{peers: []string{testPeerID(t)}}, changed: flagsSet("peer")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := buildConfig(tt.opts, tt.changed, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestParseKnownPeers(t *testing.T) {
	id := testPeerID(t)
	peers, err := parseKnownPeers([]string{"/ip4/10.0.0.1/tcp/9090/p2p/" + id})
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, id, peers[0].PeerID)
	assert.Equal(t, []string{"/ip4/10.0.0.1/tcp/9090"}, peers[0].Addrs)

	_, err = parseKnownPeers([]string{"/ip4/10.0.0.1/tcp/9090"})
	assert.Error(t, err)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b ,", ","))
	assert.Empty(t, splitAndTrim("", ","))
}

func testPeerID(t *testing.T) string {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id.ID().String()
}
