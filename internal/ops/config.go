// Package ops loads the JSON runtime configuration shared by the
// gatekeeper and breaker binaries.
package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/breaker"
	"main/internal/corroborate"
	"main/internal/queue"
	"main/internal/store"
)

// FileConfig mirrors the JSON config layout. Durations are nanoseconds,
// as encoding/json renders time.Duration.
type FileConfig struct {
	Store         StoreConfig         `json:"store"`
	Ledger        LedgerConfig        `json:"ledger"`
	Lock          LockConfig          `json:"lock"`
	Queue         queue.Config        `json:"queue"`
	Corroboration CorroborationConfig `json:"corroboration"`
	Breaker       breaker.Config      `json:"breaker"`
}

// StoreConfig selects and configures the state-store backend.
type StoreConfig struct {
	Backend string            `json:"backend"`
	Dir     string            `json:"dir"`
	Redis   store.RedisOption `json:"redis"`
}

// LedgerConfig points at the external decision ledger database.
type LedgerConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// LockConfig tunes the token lock.
type LockConfig struct {
	TTL time.Duration `json:"ttl"`
}

// CorroborationConfig tunes the rolling window and provider table.
type CorroborationConfig struct {
	Window    time.Duration                 `json:"window"`
	Providers []corroborate.ProviderPattern `json:"providers"`
}

const (
	StoreBackendFile   = "file"
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Load reads a JSON config file, fills defaults and validates. An empty
// path yields the defaults.
func Load(path string) (FileConfig, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, err
		}
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (cfg FileConfig) withDefaults() FileConfig {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendFile
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "testdata/state"
	}
	if cfg.Lock.TTL <= 0 {
		cfg.Lock.TTL = 5 * time.Minute
	}
	if cfg.Corroboration.Window <= 0 {
		cfg.Corroboration.Window = time.Hour
	}
	if len(cfg.Corroboration.Providers) == 0 {
		cfg.Corroboration.Providers = corroborate.DefaultProviderTable()
	}
	return cfg
}

// Validate rejects configurations that cannot run.
func (cfg FileConfig) Validate() error {
	switch cfg.Store.Backend {
	case StoreBackendFile, StoreBackendMemory:
	case StoreBackendRedis:
		if cfg.Store.Redis.Addr == "" {
			return fmt.Errorf("store: redis backend requires an address")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}
	if cfg.Breaker.CatastrophicConfidence > 100 {
		return fmt.Errorf("breaker: catastrophic confidence must be within 0-100")
	}
	if cfg.Breaker.RejectRateThreshold > 1 {
		return fmt.Errorf("breaker: reject rate threshold must be within 0-1")
	}
	return nil
}

// BuildStore constructs the configured state-store backend.
func (cfg FileConfig) BuildStore() (store.Store, error) {
	switch cfg.Store.Backend {
	case StoreBackendMemory:
		return store.NewMemory(), nil
	case StoreBackendRedis:
		return store.NewRedis(cfg.Store.Redis), nil
	default:
		return store.NewFile(cfg.Store.Dir)
	}
}
