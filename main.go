package main

import (
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/switchlight/cmd"
	"github.com/smazurov/switchlight/internal/config"
	"github.com/smazurov/switchlight/internal/events"
	"github.com/smazurov/switchlight/internal/logging"
)

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(cmd.LoggingConfig(opts))
		logger := logging.GetLogger("main")

		// The root command is the LED daemon; subcommands only get options.
		d := cmd.NewDaemon(opts, events.New())

		hooks.OnStart(func() {
			if startErr := d.Start(); startErr != nil {
				logger.Error("Failed to start", "error", startErr)
				d.Stop()
				os.Exit(1)
			}
			if waitErr := d.Wait(); waitErr != nil {
				logger.Error("Daemon failed", "error", waitErr)
				d.Stop()
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			d.Stop()
		})
	})

	cli.Root().Use = "switchlight"
	cli.Root().Short = "Button-driven LED strip over MQTT"

	cli.Root().AddCommand(cmd.CreatePublishCmd())
	cli.Root().AddCommand(cmd.CreatePatternCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
