// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	g := &cfg.Gatherd

	if g.ByteOrder == "" {
		g.ByteOrder = "little"
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.Source.Kind == "" {
		g.Source.Kind = "memory"
	}

	// Modbus timeout defaults to the poll interval.
	if g.Source.Kind == "modbus" && g.Source.Modbus.TimeoutMs <= 0 {
		g.Source.Modbus.TimeoutMs = g.Source.Modbus.IntervalMs
	}
}
