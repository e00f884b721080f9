// Package config reads and writes pgrid's settings file. Every setting is a
// tagged struct field; the tags supply the dotted key, default, bounds and
// help text used by `pgrid config`.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// EnvConfig overrides the config file location.
const EnvConfig = "PGRID_CONFIG"

// Config represents config.toml
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Export  ExportConfig  `toml:"export"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// GridConfig holds pagination defaults for new grids
type GridConfig struct {
	PageSize        int   `toml:"page_size" config:"grid.page_size" default:"10" min:"1" max:"1000" desc:"Rows per page"`
	PageSizeOptions []int `toml:"page_size_options" config:"grid.page_size_options" default:"5,10,20,50,100" min:"1" max:"1000" desc:"Page sizes offered by the selector"`
}

// ExportConfig controls which export formats are offered
type ExportConfig struct {
	Enabled  bool   `toml:"enabled" config:"export.enabled" default:"true" desc:"Allow document exports"`
	FileName string `toml:"file_name" config:"export.file_name" default:"export" desc:"Base name of exported files"`
	PDF      bool   `toml:"pdf" config:"export.pdf" default:"true" desc:"Allow PDF export"`
	Excel    bool   `toml:"excel" config:"export.excel" default:"true" desc:"Allow XLSX export"`
	Format   string `toml:"format" config:"export.format" default:"xlsx" enum:"plain,json,tsv,xlsx,pdf" desc:"Format written by the viewer's export key"`
}

// StorageConfig selects where view state is kept
type StorageConfig struct {
	Backend string `toml:"backend" config:"storage.backend" default:"file" enum:"file,postgres,none" desc:"View state backend"`
	Dir     string `toml:"dir" config:"storage.dir" desc:"Directory for the file backend (default: <config dir>/state)"`
	URL     string `toml:"url" config:"storage.url" env:"PGRID_STORAGE_URL" secret:"true" desc:"PostgreSQL URL for the postgres backend and --sql sources"`
}

// ServerConfig holds `pgrid serve` settings
type ServerConfig struct {
	Addr        string `toml:"addr" config:"server.addr" default:":8080" desc:"Listen address"`
	SessionTTL  int    `toml:"session_ttl" config:"server.session_ttl" default:"30" min:"1" max:"1440" desc:"Minutes an idle grid session is kept"`
	MaxSessions int    `toml:"max_sessions" config:"server.max_sessions" default:"1000" min:"1" max:"100000" desc:"Live grid sessions kept before the oldest is evicted"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `toml:"level" config:"log.level" default:"warn" enum:"debug,info,warn,error" desc:"Minimum log level"`
}

// Default returns a config with every field set from its default tag.
func Default() *Config {
	cfg := &Config{}
	for _, f := range fields() {
		if f.Default == "" {
			continue
		}
		if err := setFieldValue(cfg, f.Key, f.Default); err != nil {
			panic("config: bad default for " + f.Key + ": " + err.Error())
		}
	}
	return cfg
}

// Dir returns pgrid's configuration directory.
func Dir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "pgrid")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "pgrid")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "pgrid")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "pgrid")
	}
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// StateDir returns the file backend directory.
func (c *Config) StateDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return filepath.Join(Dir(), "state")
}

// Load reads the config file. A missing file yields the defaults.
// Environment overrides are applied on top.
func Load() (*Config, error) {
	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile reads path over the defaults without applying the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file
func (c *Config) Save() error {
	return c.SaveFile(Path())
}

// SaveFile writes c to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// GetValue returns a config value by key (uses reflection)
func (c *Config) GetValue(key string) (string, bool) {
	return getFieldValue(c, key)
}

// SetValue sets a config value by key (uses reflection with validation)
func (c *Config) SetValue(key, value string) error {
	return setFieldValue(c, key, value)
}

// Validate checks every field against its bounds and allowed values.
func (c *Config) Validate() error {
	var errs []error
	for _, f := range fields() {
		v, _ := getFieldValue(c, f.Key)
		if err := f.validate(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() {
	for _, f := range fields() {
		if f.Env == "" {
			continue
		}
		if v, ok := os.LookupEnv(f.Env); ok && v != "" {
			_ = setFieldValue(c, f.Key, v)
		}
	}
}
