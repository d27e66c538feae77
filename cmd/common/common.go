// Package common implements common eventnexus command options.
package common

import (
	"context"
	"fmt"
	"io"
	stdLog "log"
	"os"

	"github.com/akrylysov/pogreb"

	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/metrics"
	"github.com/basilisk-nexus/eventnexus/storage"
	"github.com/basilisk-nexus/eventnexus/storage/cached"
	"github.com/basilisk-nexus/eventnexus/storage/jsonl"
	"github.com/basilisk-nexus/eventnexus/storage/postgres"
)

// Frames between pogreb's log call and the logger: the standard logger's
// Printf and Output, the io.Writer adapter and the wrapper's own frames.
const pogrebCallerUnwind = 8

var rootLogger = log.NewDefaultLogger("eventnexus")

// Init initializes the common environment. The metrics server, if
// configured, runs until ctx is done.
func Init(ctx context.Context, cfg *config.Config) error {
	var w io.Writer = os.Stdout
	format := log.FmtJSON
	level := log.LevelDebug

	if cfg.Log != nil {
		var err error
		if w, err = getLoggingStream(cfg.Log); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		if err := format.Set(cfg.Log.Format); err != nil {
			return err
		}
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger, err := log.NewLogger("eventnexus", w, format, level)
	if err != nil {
		return err
	}
	rootLogger = logger

	// Initialize pogreb logging.
	pogrebLogger := RootLogger().WithModule("pogreb").WithCallerUnwind(pogrebCallerUnwind)
	pogreb.SetLogger(stdLog.New(log.WriterIntoLogger(pogrebLogger), "", 0))

	if cfg.Metrics != nil {
		promServer, err := metrics.NewPullService(cfg.Metrics.PullEndpoint, rootLogger)
		if err != nil {
			return fmt.Errorf("initializing metrics: %w", err)
		}
		go func() {
			if err := promServer.Run(ctx); err != nil {
				rootLogger.Error("metrics service failed", "err", err)
			}
		}()
		if cfg.Metrics.PprofEndpoint != "" {
			startPprof(ctx, cfg.Metrics.PprofEndpoint)
		}
	}
	return nil
}

// RootLogger returns the logger defined by logging flags.
func RootLogger() *log.Logger {
	return rootLogger
}

func getLoggingStream(cfg *config.LogConfig) (io.Writer, error) {
	if cfg == nil || cfg.File == "" {
		return os.Stdout, nil
	}
	w, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewSource opens the configured event source, wrapped in the local cache
// if one is configured.
func NewSource(chain *config.ChainConfig, cfg *config.SourceConfig, logger *log.Logger) (storage.EventSource, error) {
	src, err := jsonl.OpenSource(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Cache == nil {
		return src, nil
	}
	cachedSrc, err := cached.NewSource(chain.Name, cfg.Cache.CacheDir, src, logger)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("opening source cache: %w", err)
	}
	return cachedSrc, nil
}

// NewSink opens the configured record sink. For postgres the schema is
// (optionally wiped and) migrated first.
func NewSink(chain *config.ChainConfig, cfg *config.SinkConfig, logger *log.Logger) (storage.RecordSink, error) {
	var backend config.SinkBackend
	if err := backend.Set(string(cfg.Backend)); err != nil {
		return nil, err
	}

	switch backend {
	case config.SinkJSONL:
		return jsonl.OpenSink(cfg.Path, cfg.Quarantine)
	case config.SinkPostgres:
		client, err := postgres.NewClient(cfg.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		if cfg.WipeStorage {
			logger.Warn("wiping storage")
			if err := client.Wipe(context.Background()); err != nil {
				client.Close()
				return nil, err
			}
			logger.Info("storage wiped")
		}
		if err := postgres.RunMigrations(cfg.Migrations, cfg.Endpoint, logger); err != nil {
			client.Close()
			return nil, err
		}
		m := metrics.NewDefaultStorageMetrics(string(chain.Name))
		return postgres.NewSink(client, chain.Name, &m), nil
	default:
		return nil, fmt.Errorf("unsupported sink backend: %v", backend)
	}
}
