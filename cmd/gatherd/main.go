// Package main is the gatherd entrypoint: a TCP daemon streaming binary
// gather telemetry out of a controller data source to remote clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/motionctl/gatherd/internal/config"
	"github.com/motionctl/gatherd/internal/log"
	"github.com/motionctl/gatherd/internal/server"
	"github.com/motionctl/gatherd/internal/source"
	modbussrc "github.com/motionctl/gatherd/internal/source/modbus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

var (
	cfgPath  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "gatherd [port]",
		Short: "Gather telemetry stream server",
		Long: "gatherd serves sampled gather buffers (servo and phase channels) to\n" +
			"remote clients over a small line-command/binary-reply TCP protocol.\n" +
			"The optional positional argument overrides the listen port.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return errors.Wrap(err, "load config failed")
		}
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Wrap(err, "validate config failed")
	}
	config.Normalize(cfg)

	if logLevel != "" {
		cfg.Gatherd.LogLevel = logLevel
	}
	log.Setup(cfg.Gatherd.LogLevel)

	// Optional positional port. A bad value is not fatal: print usage and
	// stay on the configured port, the contract existing clients rely on.
	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 1 || port > 65535 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Invalid port %q. Use %s [port_number]\n", args[0], cmd.CommandPath())
		} else {
			cfg.Gatherd.Listen.Port = port
		}
	}

	// The data source opens once at startup; failure here is fatal.
	src, err := buildSource(cfg)
	if err != nil {
		return errors.Wrap(err, "open data source failed")
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.WithError(err).Warn("source close failed")
		}
	}()

	srv, err := server.New(server.Config{
		Port:  cfg.Gatherd.Listen.Port,
		Order: cfg.Order(),
	}, src)
	if err != nil {
		return errors.Wrap(err, "new server failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func buildSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Gatherd.Source.Kind {
	case "modbus":
		m := cfg.Gatherd.Source.Modbus
		return modbussrc.New(modbussrc.Config{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
			Interval: time.Duration(m.IntervalMs) * time.Millisecond,
			Order:    cfg.Order(),
			Servo:    block(m.Servo),
			Phase:    block(m.Phase),
		})
	default:
		return source.NewMemorySource(), nil
	}
}

func block(b *config.BlockConfig) *modbussrc.BlockConfig {
	if b == nil {
		return nil
	}
	return &modbussrc.BlockConfig{
		FC:       b.FC,
		Address:  b.Address,
		Quantity: b.Quantity,
		Depth:    b.Depth,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		if errors.Is(err, server.ErrBind) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
