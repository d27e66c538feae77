// Package cmd implements commands for the eventnexus executable.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/basilisk-nexus/eventnexus/cmd/catalog"
	"github.com/basilisk-nexus/eventnexus/cmd/common"
	"github.com/basilisk-nexus/eventnexus/cmd/decode"
	"github.com/basilisk-nexus/eventnexus/cmd/decodeevent"
	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/log"
)

var (
	// Path to the configuration file.
	configFile string
	// Optional dotenv file loaded before the config, so EVENTNEXUS_*
	// overrides can live next to it.
	envFile string

	rootCmd = &cobra.Command{
		Use:               "eventnexus",
		Short:             "Basilisk event decoder",
		PersistentPreRunE: loadEnvFile,
		Run:               rootMain,
	}
)

func loadEnvFile(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func rootMain(cmd *cobra.Command, args []string) {
	// Initialize config.
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize common environment.
	if err = common.Init(ctx, cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := common.RootLogger()

	if cfg.Decode == nil {
		logger.Info("no decode section configured, serving metrics only")
		<-ctx.Done()
		return
	}

	decodeService, err := decode.Init(cfg)
	if err != nil {
		logger.Error("failed to initialize decode service", "err", err)
		os.Exit(1)
	}
	logger.Info("started all services")
	if err := decodeService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

// Execute spawns the main entry point after handing the config file.
func Execute() {
	// Debug hook. If we receive SIGUSR1, dump all goroutines.
	go dumpGoroutinesOnSignal(syscall.SIGUSR1)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load into the environment first")

	for _, f := range []func(*cobra.Command){
		decode.Register,
		catalog.Register,
		decodeevent.Register,
	} {
		f(rootCmd)
	}
}

// Starts listening for the specified signals, and logs a dump of all
// goroutines when the process receives one of those signals.
func dumpGoroutinesOnSignal(signals ...os.Signal) {
	logger := log.NewDefaultLogger("toplevel")
	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)
	logger.Info("listening for signals", "signals", signals)
	for range c {
		b := bytes.NewBufferString("")
		_ = pprof.Lookup("goroutine").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: all goroutines", "goroutines_all", b.String())

		b = bytes.NewBufferString("")
		_ = pprof.Lookup("block").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: stack traces that led to blocking on synchronization primitives", "goroutines_block", b.String())

		b = bytes.NewBufferString("")
		_ = pprof.Lookup("mutex").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: stack traces of holders of contended mutexes", "goroutines_mutex", b.String())
	}
}
