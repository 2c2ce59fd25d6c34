// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	g := &cfg.Gatherd

	// ------------------------------------------------------------
	// LISTEN
	// ------------------------------------------------------------

	if g.Listen.Port < 1 || g.Listen.Port > 65535 {
		return fmt.Errorf("listen: port %d out of range (1-65535)", g.Listen.Port)
	}
	if g.Listen.Backlog < 0 {
		return fmt.Errorf("listen: backlog must not be negative")
	}

	// ------------------------------------------------------------
	// WIRE FORMAT
	// ------------------------------------------------------------

	switch g.ByteOrder {
	case "", "little", "big":
	default:
		return fmt.Errorf("byte_order %q: must be \"little\" or \"big\"", g.ByteOrder)
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	switch g.Source.Kind {
	case "", "memory":
		// nothing to check; channels start empty

	case "modbus":
		m := g.Source.Modbus
		if m == nil {
			return fmt.Errorf("source: kind is modbus but no modbus section given")
		}
		if m.Endpoint == "" {
			return fmt.Errorf("source: modbus endpoint required")
		}
		if m.IntervalMs <= 0 {
			return fmt.Errorf("source: modbus interval_ms must be > 0")
		}
		if m.Servo == nil && m.Phase == nil {
			return fmt.Errorf("source: modbus needs at least one of servo/phase blocks")
		}
		for name, blk := range map[string]*BlockConfig{"servo": m.Servo, "phase": m.Phase} {
			if blk == nil {
				continue
			}
			if blk.FC != 3 && blk.FC != 4 {
				return fmt.Errorf("source: %s block fc must be 3 or 4, got %d", name, blk.FC)
			}
			if blk.Quantity == 0 || blk.Quantity > 125 {
				return fmt.Errorf("source: %s block quantity %d out of range (1-125)", name, blk.Quantity)
			}
			if blk.Depth == 0 {
				return fmt.Errorf("source: %s block depth must be > 0", name)
			}
		}

	default:
		return fmt.Errorf("source: unknown kind %q", g.Source.Kind)
	}

	return nil
}
