// Package servecmder provides the serve command for running the local
// replay server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/config"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/logger"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/replay"
)

type ServeCommander struct {
	listen  string
	fixture string
	delay   time.Duration
	debug   bool

	logger *zap.Logger
}

const serveLongDesc string = `Run a local replay server.

The replay server answers the same endpoints as a real research backend but
streams a scripted fixture instead of running agents. Point the client at it
to demo the TUI, test exports, or develop offline:

  deepresearch serve
  deepresearch research "anything" --api-target http://localhost:8090

Fixtures are JSONL files with one research event per line; blank lines and
'#' comments are skipped. Without --fixture a built-in demo script is used.

Examples:
  deepresearch serve
  deepresearch serve --listen :9000 --delay 250ms
  deepresearch serve --fixture ./run.jsonl`

const serveShortDesc string = "Run a local replay server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagServeListen,
				config.FlagServeFixture,
			})

			cmder.listen = v.GetString("serve.listen")
			cmder.fixture = v.GetString("serve.fixture")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServeListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagServeFixture, &cmder.fixture)
	cmd.Flags().DurationVar(&cmder.delay, "delay", 150*time.Millisecond, "Pause between replayed events")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	var fixture *replay.Fixture
	if c.fixture != "" {
		var err error
		fixture, err = replay.LoadFixture(c.fixture)
		if err != nil {
			return err
		}
		c.logger.Info("loaded fixture",
			zap.String("path", c.fixture),
			zap.Int("events", len(fixture.Lines)),
		)
	}

	server := replay.NewServer(replay.Config{
		ListenAddr: c.listen,
		Delay:      c.delay,
	}, fixture, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("replay server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
