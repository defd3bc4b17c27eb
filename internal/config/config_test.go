package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "nickname: alice\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Nickname)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, DefaultUDPPort, cfg.UDPPort)
	assert.Equal(t, DefaultTCPPort, cfg.TCPPort)
	assert.Equal(t, DefaultUserTimeout, cfg.UserTimeout)
	assert.Equal(t, DefaultHelloInterval, cfg.HelloInterval)
	assert.Equal(t, DefaultMaxRetry, cfg.MaxRetry)
	assert.Equal(t, DefaultAckTimeout, cfg.AckTimeout)
	assert.Equal(t, path, cfg.Path)
	assert.False(t, cfg.WatchConfig)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
env: prod
nickname: bob
udp_port: 5000
tcp_port: 5001
user_timeout: 20s
hello_interval: 2s
max_retry: 5
ack_timeout: 250ms
peerbook_path: /tmp/peers.db
watch_config: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "bob", cfg.Nickname)
	assert.Equal(t, 5000, cfg.UDPPort)
	assert.Equal(t, 5001, cfg.TCPPort)
	assert.Equal(t, 20*time.Second, cfg.UserTimeout)
	assert.Equal(t, 2*time.Second, cfg.HelloInterval)
	assert.Equal(t, 5, cfg.MaxRetry)
	assert.Equal(t, 250*time.Millisecond, cfg.AckTimeout)
	assert.Equal(t, "/tmp/peers.db", cfg.PeerBookPath)
	assert.True(t, cfg.WatchConfig)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "nickname: alice\nudp_port: 5000\n")
	t.Setenv("NICKNAME", "carol")
	t.Setenv("UDP_PORT", "6000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "carol", cfg.Nickname)
	assert.Equal(t, 6000, cfg.UDPPort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NICKNAME", "dave")
	t.Setenv("MAX_RETRY", "7")

	cfg, err := LoadEnv()
	require.NoError(t, err)

	assert.Equal(t, "dave", cfg.Nickname)
	assert.Equal(t, 7, cfg.MaxRetry)
	assert.Empty(t, cfg.Path)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			UDPPort:       DefaultUDPPort,
			TCPPort:       DefaultTCPPort,
			UserTimeout:   DefaultUserTimeout,
			HelloInterval: DefaultHelloInterval,
			MaxRetry:      DefaultMaxRetry,
			AckTimeout:    DefaultAckTimeout,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "udp port zero", mutate: func(c *Config) { c.UDPPort = 0 }, wantErr: true},
		{name: "tcp port too big", mutate: func(c *Config) { c.TCPPort = 70000 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.UserTimeout = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.HelloInterval = -time.Second }, wantErr: true},
		{name: "zero ack timeout", mutate: func(c *Config) { c.AckTimeout = 0 }, wantErr: true},
		{name: "no retries", mutate: func(c *Config) { c.MaxRetry = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
