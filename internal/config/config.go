// internal/config/config.go
package config

import (
	"encoding/binary"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gatherd GatherdConfig `yaml:"gatherd"`
}

type GatherdConfig struct {
	Listen    ListenConfig `yaml:"listen"`
	ByteOrder string       `yaml:"byte_order"` // "little" (default) or "big"
	LogLevel  string       `yaml:"log_level"`
	Source    SourceConfig `yaml:"source"`
}

// ---- LISTEN ----

type ListenConfig struct {
	Port int `yaml:"port"`
	// Backlog is advisory on this runtime: Go's listener does not expose
	// the accept backlog. Kept for deployment-file parity with the
	// original daemon, whose backlog of 1 reflects a single expected
	// client.
	Backlog int `yaml:"backlog"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Kind   string        `yaml:"kind"` // "memory" (default) or "modbus"
	Modbus *ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	IntervalMs int    `yaml:"interval_ms"`

	Servo *BlockConfig `yaml:"servo"`
	Phase *BlockConfig `yaml:"phase"`
}

// ---- READ GEOMETRY ----

type BlockConfig struct {
	FC       uint8  `yaml:"fc"`
	Address  uint16 `yaml:"address"`
	Quantity uint16 `yaml:"quantity"`
	Depth    uint32 `yaml:"depth"`
}

// Default returns the configuration used when no file is given: the
// standard port, an empty in-memory source, little-endian wire order.
func Default() *Config {
	return &Config{
		Gatherd: GatherdConfig{
			Listen:    ListenConfig{Port: 2332, Backlog: 1},
			ByteOrder: "little",
			LogLevel:  "info",
			Source:    SourceConfig{Kind: "memory"},
		},
	}
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Order maps the configured byte order name onto a binary.ByteOrder.
// Call only after Validate().
func (c *Config) Order() binary.ByteOrder {
	if c.Gatherd.ByteOrder == "big" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
