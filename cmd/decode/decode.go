// Package decode implements the `decode` sub-command.
package decode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/basilisk-nexus/eventnexus/analyzer/decoder"
	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/catalog/metafile"
	cmdCommon "github.com/basilisk-nexus/eventnexus/cmd/common"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/resolver"
	"github.com/basilisk-nexus/eventnexus/storage"
)

const (
	moduleName = "decode_service"
)

var (
	// Path to the configuration file.
	configFile string

	decodeCmd = &cobra.Command{
		Use:   "decode",
		Short: "Decode and normalize the configured block range",
		Run:   runDecode,
	}
)

func runDecode(cmd *cobra.Command, args []string) {
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("config init failed",
			"error", err,
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = cmdCommon.Init(ctx, cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := cmdCommon.RootLogger()

	if cfg.Decode == nil {
		logger.Error("decode config not provided")
		os.Exit(1)
	}

	service, err := Init(cfg)
	if err != nil {
		os.Exit(1)
	}
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

// Service runs one decoder over the configured source and sink.
type Service struct {
	analyzer *decoder.Analyzer
	source   storage.EventSource
	sink     storage.RecordSink
	logger   *log.Logger
}

// Init initializes the decode service.
func Init(cfg *config.Config) (*Service, error) {
	logger := cmdCommon.RootLogger().WithModule(moduleName)
	logger.Info("initializing decode service", "chain", cfg.Chain.Name, "config", cfg.Decode)

	service, err := newService(cfg, basilisk.Catalog(), logger)
	if err != nil {
		logger.Error("service failed to start",
			"error", err,
		)
		return nil, err
	}
	return service, nil
}

func newService(cfg *config.Config, cat *catalog.Catalog, logger *log.Logger) (*Service, error) {
	addresses, err := cfg.Chain.AddressCodec()
	if err != nil {
		return nil, err
	}
	norm, err := normalizer.New(cat, normalizer.Options{Addresses: addresses})
	if err != nil {
		return nil, err
	}
	res := resolver.New(cat, resolver.Options{AllowTrailingBytes: cfg.Decode.AllowTrailingBytes})

	if cfg.Catalog != nil {
		if err := warnIncomplete(cat, cfg.Catalog.Fingerprints, logger); err != nil {
			return nil, err
		}
	}

	source, err := cmdCommon.NewSource(cfg.Chain, &cfg.Decode.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	sink, err := cmdCommon.NewSink(cfg.Chain, &cfg.Decode.Sink, logger)
	if err != nil {
		common.CloseOrLog(source, logger)
		return nil, fmt.Errorf("opening sink: %w", err)
	}

	a, err := decoder.NewAnalyzer(
		decoder.OptionsFromConfig(cfg.Chain.Name, cfg.Decode),
		source, sink, res, norm,
		cmdCommon.RootLogger(),
	)
	if err != nil {
		common.CloseOrLog(source, logger)
		common.CloseOrLog(sink, logger)
		return nil, err
	}
	return &Service{
		analyzer: a,
		source:   source,
		sink:     sink,
		logger:   logger,
	}, nil
}

// warnIncomplete logs every kind whose live layout the catalog lacks.
// Such events will fail with an unknown schema version.
func warnIncomplete(cat *catalog.Catalog, fingerprintsPath string, logger *log.Logger) error {
	fps, err := metafile.Load(fingerprintsPath)
	if err != nil {
		return err
	}
	statuses, err := catalog.CheckCompleteness(context.Background(), cat, fps)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		if st.Coverage == catalog.Missing {
			logger.Warn("catalog lacks the current layout of an event kind",
				"kind", st.Kind,
				"fingerprint", st.Current,
				"spec_version", fps.SpecVersion,
			)
		}
	}
	return nil
}

// Run decodes the configured range, then closes the source and sink.
func (s *Service) Run(ctx context.Context) error {
	defer common.CloseOrLog(s.sink, s.logger)
	defer common.CloseOrLog(s.source, s.logger)

	s.logger.Info("starting decoder", "analyzer", s.analyzer.Name(), "run_id", s.analyzer.RunID())
	if err := s.analyzer.Run(ctx); err != nil {
		s.logger.Error("decoder stopped", "analyzer", s.analyzer.Name(), "err", err)
		return err
	}
	s.logger.Info("decoder finished", "analyzer", s.analyzer.Name())
	return nil
}

// Register registers the decode sub-command.
func Register(parentCmd *cobra.Command) {
	decodeCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")
	parentCmd.AddCommand(decodeCmd)
}
