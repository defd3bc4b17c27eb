package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lanchat/internal/config"
	"lanchat/internal/util/logger/handlers/slogdiscard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReloader struct {
	mock.Mock
}

func (m *MockReloader) Reload(cfg *config.Config) {
	m.Called(cfg.Nickname)
}

func writeConfig(t *testing.T, path, nickname string) {
	t.Helper()
	data := []byte("env: local\nnickname: " + nickname + "\n")
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func startWatcher(t *testing.T, path string, onReload ReloadFunc) *ConfigWatcher {
	t.Helper()

	w, err := NewConfigWatcher(path, onReload, slogdiscard.NewDiscardLogger(), Config{
		DebounceDuration: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w
}

func TestNewConfigWatcher(t *testing.T) {
	tests := []struct {
		name        string
		path        func(dir string) string
		expectError bool
	}{
		{
			name:        "Existing file",
			path:        func(dir string) string { return filepath.Join(dir, "config.yaml") },
			expectError: false,
		},
		{
			name:        "Empty path",
			path:        func(string) string { return "" },
			expectError: true,
		},
		{
			name:        "Missing directory",
			path:        func(dir string) string { return filepath.Join(dir, "nope", "config.yaml") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, filepath.Join(dir, "config.yaml"), "alice")

			w, err := NewConfigWatcher(tt.path(dir), nil, slogdiscard.NewDiscardLogger(), Config{})
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, w.Close())
		})
	}
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "alice")

	reloader := new(MockReloader)
	reloaded := make(chan struct{}, 4)
	reloader.On("Reload", "bob").Run(func(mock.Arguments) {
		reloaded <- struct{}{}
	}).Return()

	w := startWatcher(t, path, reloader.Reload)

	writeConfig(t, path, "bob")

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
	reloader.AssertExpectations(t)
	assert.GreaterOrEqual(t, w.Metrics().Reloads, int64(1))
}

func TestConfigWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "alice")

	var mu sync.Mutex
	var nicks []string
	startWatcher(t, path, func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		nicks = append(nicks, cfg.Nickname)
	})

	for _, nick := range []string{"b1", "b2", "b3", "final"} {
		writeConfig(t, path, nick)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(nicks) > 0 && nicks[len(nicks)-1] == "final"
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, len(nicks), 4)
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "alice")

	reloader := new(MockReloader)
	w := startWatcher(t, path, reloader.Reload)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)

	reloader.AssertNotCalled(t, "Reload", mock.Anything)
	assert.Equal(t, int64(0), w.Metrics().Events)
}

func TestConfigWatcher_InvalidConfigKeepsRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "alice")

	reloaded := make(chan string, 4)
	w := startWatcher(t, path, func(cfg *config.Config) {
		reloaded <- cfg.Nickname
	})

	require.NoError(t, os.WriteFile(path, []byte("udp_port: [broken\n"), 0644))
	require.Eventually(t, func() bool {
		return w.Metrics().Errors > 0
	}, 3*time.Second, 20*time.Millisecond)

	writeConfig(t, path, "carol")
	select {
	case nick := <-reloaded:
		assert.Equal(t, "carol", nick)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded after fix")
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	calls := 0
	for i := 0; i < 5; i++ {
		d.Debounce("k", func() {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}
	assert.Equal(t, 1, d.Pending())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, d.Pending())

	d.Debounce("k", func() { t.Error("stopped call ran") })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
}
