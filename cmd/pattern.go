package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/switchlight/internal/config"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/led"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/spf13/cobra"
)

// CreatePatternCmd creates the test-pattern command.
func CreatePatternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-pattern",
		Short: "Cycle the fallback pattern on the LED strip",
		Long:  `Shows red, green, blue and off in turn until interrupted, then turns the strip off. Useful for checking strip wiring.`,
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, opts *config.Options) {
			logger := logging.GetLogger("led")

			strip, err := led.New(LEDConfig(opts), logger)
			if err != nil {
				logger.Error("Failed to open LED strip", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := RunPattern(ctx, strip, FallbackInterval(opts), events.New()); err != nil {
				logger.Error("Failed to clear LED strip", "error", err)
				os.Exit(1)
			}
		}),
	}
}

// RunPattern cycles the fallback pattern on strip until ctx is cancelled,
// then turns every pixel off and closes the strip.
func RunPattern(ctx context.Context, strip led.Strip, interval time.Duration, bus *events.Bus) error {
	logger := logging.GetLogger("led")
	renderer := led.NewRenderer(strip, bus, logger)
	led.NewFallback(renderer, interval, bus, logger).Run(ctx)

	clearErr := renderer.Clear()
	if err := strip.Close(); err != nil {
		logger.Warn("Failed to close LED strip", "error", err)
	}
	return clearErr
}
