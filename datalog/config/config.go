// Package config loads the YAML configuration shared by the command line
// tools: which relation store backs evaluation and how programs are
// checked and traced.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/wbrown/janus-dataflow/datalog/storage"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

// Namespaces of the EDB and IDB relations inside one physical store
const (
	EDBNamespace = "edb"
	IDBNamespace = "idb"
)

// ErrInvalidConfig is returned for configurations that fail Check
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration
type Config struct {
	Store    StoreConfig `yaml:"store"`
	Validate bool        `yaml:"validate"`
	Verbose  bool        `yaml:"verbose"`
}

// StoreConfig selects the relation store
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path of the database directory; empty keeps badger and pebble in memory
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Store:    StoreConfig{Backend: BackendMemory},
		Validate: true,
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Check(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Check validates field values
func (c Config) Check() error {
	switch c.Store.Backend {
	case BackendMemory:
		if c.Store.Path != "" {
			return errors.Wrapf(ErrInvalidConfig, "store path %q given for the memory backend", c.Store.Path)
		}
	case BackendBadger, BackendPebble:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// Marshal renders the configuration as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// OpenStores opens the configured backend and returns its EDB and IDB
// stores together with a function that closes them. Only the EDB persists:
// the IDB namespace is cleared on open, so rows derived by an earlier
// program never leak into a new one.
func OpenStores(cfg StoreConfig) (edb, idb storage.Store, closeFn func() error, err error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return storage.NewMemoryStore(), storage.NewMemoryStore(), func() error { return nil }, nil

	case BackendBadger:
		db, err := storage.NewBadgerStore(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		idb := db.Namespace(IDBNamespace)
		if err := idb.Clear(); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db.Namespace(EDBNamespace), idb, db.Close, nil

	case BackendPebble:
		db, err := storage.NewPebbleStore(cfg.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		idb := db.Namespace(IDBNamespace)
		if err := idb.Clear(); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db.Namespace(EDBNamespace), idb, db.Close, nil

	default:
		return nil, nil, nil, errors.Wrapf(ErrInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
}
