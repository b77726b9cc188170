package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试默认配置有效
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	addrs, err := cfg.ListenAddrs()
	require.NoError(t, err)
	assert.Len(t, addrs, 3)
}

// TestConnectionPolicy_Defaults 测试默认策略
func TestConnectionPolicy_Defaults(t *testing.T) {
	p := DefaultConnectionPolicy()
	assert.Equal(t, 1, p.MinConnections)
	assert.Equal(t, 25, p.MaxConnections)
	assert.Equal(t, 2*time.Second, p.PollInterval.Duration())
	assert.True(t, p.AutoDial)
	assert.Equal(t, 10*time.Second, p.AutoDialInterval.Duration())
}

// TestConnectionPolicy_Validate 测试策略校验不做修正
func TestConnectionPolicy_Validate(t *testing.T) {
	valid := []ConnectionPolicy{
		DefaultConnectionPolicy(),
		{MinConnections: 0, MaxConnections: 0, PollInterval: 1, AutoDialInterval: 1},
		{MinConnections: 5, MaxConnections: 5, PollInterval: 1, AutoDialInterval: 1},
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), "%+v", p)
	}

	invalid := map[string]ConnectionPolicy{
		"min>max":       {MinConnections: 10, MaxConnections: 5, PollInterval: 1, AutoDialInterval: 1},
		"negative min":  {MinConnections: -1, MaxConnections: 5, PollInterval: 1, AutoDialInterval: 1},
		"zero poll":     {MinConnections: 1, MaxConnections: 5, PollInterval: 0, AutoDialInterval: 1},
		"negative dial": {MinConnections: 1, MaxConnections: 5, PollInterval: 1, AutoDialInterval: -1},
	}
	for name, p := range invalid {
		err := p.Validate()
		assert.True(t, errors.Is(err, ErrInvalidPolicy), name)
	}

	// 校验不修改原值
	p := invalid["min>max"]
	_ = p.Validate()
	assert.Equal(t, 10, p.MinConnections)
	assert.Equal(t, 5, p.MaxConnections)
}

// TestConfig_ValidateSubConfigs 测试子配置错误被传播
func TestConfig_ValidateSubConfigs(t *testing.T) {
	mutations := map[string]func(*Config){
		"listen":     func(c *Config) { c.Listen = []string{"127.0.0.1:9090"} },
		"transport":  func(c *Config) { c.Transport.EnableQUIC, c.Transport.EnableTCP, c.Transport.EnableWebSocket = false, false, false },
		"policy":     func(c *Config) { c.ConnMgr.MinConnections = 99 },
		"messaging":  func(c *Config) { c.Messaging.MaxMessageSize = 0 },
		"control":    func(c *Config) { c.Control.Addr = "nope" },
		"log":        func(c *Config) { c.Log.Level = "loud" },
		"identity":   func(c *Config) { c.Identity.AutoGenerate = false },
		"known_peer": func(c *Config) { c.KnownPeers = []KnownPeer{{PeerID: "bad"}} },
		"gater":      func(c *Config) { c.Gater.InboundBurst = 0 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestLoad_JSON 测试 JSON 加载，未出现字段保留默认值
func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	data := `{
		"listen": ["/ip4/127.0.0.1/tcp/0"],
		"conn_mgr": {"min_connections": 2, "max_connections": 8, "poll_interval": "500ms", "auto_dial": false, "auto_dial_interval": 3000000000},
		"messaging": {"send_timeout": "3s", "max_message_size": 1024, "idle_timeout": "1m", "event_buffer": 8}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/0"}, cfg.Listen)
	assert.Equal(t, 8, cfg.ConnMgr.MaxConnections)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnMgr.PollInterval.Duration())
	assert.Equal(t, 3*time.Second, cfg.ConnMgr.AutoDialInterval.Duration())
	assert.Equal(t, 3*time.Second, cfg.Messaging.SendTimeout.Duration())
	assert.True(t, cfg.Transport.EnableQUIC)
}

// TestLoad_YAML 测试 YAML 加载
func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	data := `
listen:
  - /ip4/127.0.0.1/tcp/0/ws
conn_mgr:
  min_connections: 0
  max_connections: 3
  poll_interval: 1s
  auto_dial: true
  auto_dial_interval: 5s
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ConnMgr.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.ConnMgr.AutoDialInterval.Duration())
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestLoad_InvalidPolicy 测试无效策略在加载时失败
func TestLoad_InvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"conn_mgr":{"min_connections":5,"max_connections":1,"poll_interval":"1s","auto_dial_interval":"1s"}}`), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

// TestSave_RoundTrip 测试保存后重新加载
func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"node.json", "node.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)

			cfg := NewConfig()
			cfg.Messaging.SendTimeout = Duration(7 * time.Second)
			cfg.KnownPeers = nil
			require.NoError(t, cfg.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

// TestDuration_JSON 测试 Duration 的 JSON 解析
func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
