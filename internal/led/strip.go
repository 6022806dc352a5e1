// Package led drives the addressable LED strip: frame drivers, the command
// renderer and the fallback pattern shown while the broker is unreachable.
package led

import (
	"fmt"
	"log/slog"
)

// Strip pushes whole frames to an LED array.
type Strip interface {
	// Len returns the number of pixels.
	Len() int
	// Render pushes frame to the hardware. len(frame) must equal Len().
	Render(frame Frame) error
	// Close releases the hardware. The strip is unusable afterwards.
	Close() error
}

// Config selects and configures a strip driver.
type Config struct {
	Driver     string // spi or noop
	SPIPort    string // empty opens the first SPI port
	Count      int
	Brightness int
	FreqKHz    int
}

// New opens the configured strip driver.
// An unknown driver or an init failure is a configuration error.
func New(cfg Config, logger *slog.Logger) (Strip, error) {
	if cfg.Count <= 0 {
		return nil, newError(ErrCodeConfiguration, fmt.Sprintf("invalid LED count %d", cfg.Count), nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case "spi", "":
		logger.Info("Opening LED strip", "driver", "spi", "port", cfg.SPIPort, "count", cfg.Count, "freq_khz", cfg.FreqKHz)
		return newSPI(cfg)
	case "noop":
		logger.Info("Using no-op LED strip", "count", cfg.Count)
		return newNoop(cfg.Count, logger), nil
	default:
		return nil, newError(ErrCodeConfiguration, fmt.Sprintf("unknown LED driver %q", cfg.Driver), nil)
	}
}

func checkLen(s Strip, frame Frame) error {
	if len(frame) != s.Len() {
		return newError(ErrCodeRender, fmt.Sprintf("frame has %d pixels, strip has %d", len(frame), s.Len()), nil)
	}
	return nil
}
