package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/switchlight/internal/config"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/gpio"
	"github.com/smazurov/switchlight/internal/logging"
	"github.com/smazurov/switchlight/internal/network"
	"github.com/smazurov/switchlight/internal/publisher"
	"github.com/smazurov/switchlight/internal/session"
	"github.com/spf13/cobra"
)

// CreatePublishCmd creates the publish command.
func CreatePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish button state changes",
		Long: `Brings up the network link, connects to the broker and samples the button GPIO, ` +
			`publishing {"button_state": ...} on every pressed/released transition.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, opts *config.Options) {
			logger := logging.GetLogger("publisher")

			reader, err := gpio.Open(opts.PublisherGPIOPin)
			if err != nil {
				logger.Error("Failed to open button GPIO", "pin", opts.PublisherGPIOPin, "error", err)
				os.Exit(1)
			}

			stationCfg, _ := NetworkConfig(opts)
			station, err := network.NewStation(stationCfg)
			if err != nil {
				logger.Error("Invalid network configuration", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if stopWatch, err := WatchLogging(opts.Config, logger); err == nil {
				defer stopWatch()
			}

			if err := RunPublisher(ctx, opts, reader, station, events.New()); err != nil {
				logger.Error("Publisher failed", "error", err)
				os.Exit(1)
			}
		}),
	}
}

// RunPublisher runs the network bring-up and, once the session is up, the
// edge detector until ctx is cancelled. The reader is closed on return.
// Only configuration errors are returned; connection failures are retried.
func RunPublisher(ctx context.Context, opts *config.Options, reader gpio.Reader, station network.Station, bus *events.Bus) error {
	logger := logging.GetLogger("publisher")
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("Failed to release button GPIO", "error", err)
		}
	}()

	sess, err := session.New(SessionConfig(opts, RolePublisher), bus, logging.GetLogger("session"))
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("Failed to close session", "error", err)
		}
	}()

	_, bringupCfg := NetworkConfig(opts)
	bringup := network.NewBringup(station, bringupCfg, bus, logging.GetLogger("network"))
	loop := publisher.NewLoop(reader, sess, PublisherConfig(opts), bus, logger)

	loopDone := make(chan struct{})
	started := false
	bringup.Run(ctx, func(ctx context.Context) error {
		if err := sess.Connect(ctx); err != nil {
			return err
		}
		started = true
		go func() {
			defer close(loopDone)
			loop.Run(ctx)
		}()
		return nil
	})

	if started {
		<-loopDone
	}
	return nil
}
