package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, time.Hour, cfg.Corroboration.Window)
	assert.NotEmpty(t, cfg.Corroboration.Providers)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"store": {"backend": "memory"},
		"queue": {"capacity": 7},
		"breaker": {"sampleSize": 20}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 7, cfg.Queue.Capacity)
	assert.Equal(t, 20, cfg.Breaker.SampleSize)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := FileConfig{}.withDefaults()
	cfg.Store.Backend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = FileConfig{}.withDefaults()
	cfg.Store.Backend = StoreBackendRedis
	assert.Error(t, cfg.Validate(), "redis backend requires an address")

	cfg = FileConfig{}.withDefaults()
	cfg.Breaker.CatastrophicConfidence = 120
	assert.Error(t, cfg.Validate())

	cfg = FileConfig{}.withDefaults()
	cfg.Breaker.RejectRateThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestBuildStore(t *testing.T) {
	cfg := FileConfig{}.withDefaults()
	cfg.Store.Backend = StoreBackendMemory
	s, err := cfg.BuildStore()
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Store.Backend = StoreBackendFile
	cfg.Store.Dir = t.TempDir()
	s, err = cfg.BuildStore()
	require.NoError(t, err)
	assert.NotNil(t, s)
}
