// Package config enables config file parsing.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/log"
)

// Config contains the CLI configuration.
type Config struct {
	Chain   *ChainConfig   `koanf:"chain"`
	Decode  *DecodeConfig  `koanf:"decode"`
	Catalog *CatalogConfig `koanf:"catalog"`
	Log     *LogConfig     `koanf:"log"`
	Metrics *MetricsConfig `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Chain != nil {
		if err := cfg.Chain.Validate(); err != nil {
			return fmt.Errorf("chain: %w", err)
		}
	}
	if cfg.Decode != nil {
		if cfg.Chain == nil {
			return fmt.Errorf("decode: requires a chain section")
		}
		if err := cfg.Decode.Validate(); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	if cfg.Catalog != nil {
		if err := cfg.Catalog.Validate(); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

// ChainConfig describes the network whose events are decoded.
type ChainConfig struct {
	// Name is one of the known chains (e.g. basilisk). It supplies the
	// default SS58 prefix.
	Name common.ChainName `koanf:"name"`

	// SS58Prefix overrides the chain's registered SS58 prefix. Required
	// when Name is not a known chain.
	SS58Prefix *uint16 `koanf:"ss58_prefix"`

	// AddressFormat selects how accounts are rendered in records:
	// "ss58" (default) or "hex".
	AddressFormat string `koanf:"address_format"`
}

// Validate validates the chain configuration.
func (cfg *ChainConfig) Validate() error {
	if cfg.Name == "" {
		return fmt.Errorf("no chain name provided")
	}
	if cfg.SS58Prefix == nil {
		if _, err := cfg.Name.SS58Prefix(); err != nil {
			return fmt.Errorf("%w; set ss58_prefix for custom chains", err)
		}
	} else if *cfg.SS58Prefix >= 1<<14 {
		return fmt.Errorf("ss58_prefix %d out of range", *cfg.SS58Prefix)
	}
	if cfg.AddressFormat != "" {
		var f common.AddressFormat
		return f.Set(cfg.AddressFormat)
	}
	return nil
}

// AddressCodec returns the account renderer this chain config describes.
func (cfg *ChainConfig) AddressCodec() (common.AddressCodec, error) {
	codec := common.AddressCodec{Format: common.AddressFormatSS58}
	if cfg.AddressFormat != "" {
		if err := codec.Format.Set(cfg.AddressFormat); err != nil {
			return common.AddressCodec{}, err
		}
	}
	if cfg.SS58Prefix != nil {
		codec.Prefix = *cfg.SS58Prefix
		return codec, nil
	}
	prefix, err := cfg.Name.SS58Prefix()
	if err != nil {
		return common.AddressCodec{}, err
	}
	codec.Prefix = prefix
	return codec, nil
}

// ErrorPolicy decides what the pipeline does with an event that fails to
// decode or normalize.
type ErrorPolicy string

const (
	// PolicySkip logs the failure and moves on.
	PolicySkip ErrorPolicy = "skip"
	// PolicyHalt stops the pipeline at the failing block.
	PolicyHalt ErrorPolicy = "halt"
	// PolicyQuarantine stores the failing event and moves on.
	PolicyQuarantine ErrorPolicy = "quarantine"
)

func (p ErrorPolicy) Validate() error {
	switch p {
	case PolicySkip, PolicyHalt, PolicyQuarantine:
		return nil
	default:
		return fmt.Errorf("invalid on_error policy '%s'", p)
	}
}

// DecodeConfig is the configuration of the block decoding pipeline.
type DecodeConfig struct {
	Source SourceConfig `koanf:"source"`
	Sink   SinkConfig   `koanf:"sink"`

	// From is the (inclusive) first block height to decode.
	From uint64 `koanf:"from"`
	// To is the (inclusive) last block height to decode. Zero means
	// decode until the source is exhausted.
	To uint64 `koanf:"to"`

	// Workers bounds the number of events decoded in parallel per block.
	// Defaults to 8.
	Workers int `koanf:"workers"`

	// OnError is one of skip, halt, quarantine. Defaults to halt.
	OnError ErrorPolicy `koanf:"on_error"`

	// AllowTrailingBytes downgrades unconsumed payload bytes from an error
	// to a warning.
	AllowTrailingBytes bool `koanf:"allow_trailing_bytes"`
}

const DefaultWorkers = 8

// Validate validates the decode configuration.
func (cfg *DecodeConfig) Validate() error {
	if cfg.To != 0 && cfg.From > cfg.To {
		return fmt.Errorf("malformed decode range from %d to %d", cfg.From, cfg.To)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if cfg.OnError != "" {
		if err := cfg.OnError.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := cfg.Sink.Validate(); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if cfg.OnError == PolicyQuarantine && cfg.Sink.Backend == SinkJSONL && cfg.Sink.Quarantine == "" {
		return fmt.Errorf("on_error quarantine with a jsonl sink requires sink.quarantine")
	}
	return nil
}

// WorkerCount returns the configured worker count, or the default.
func (cfg *DecodeConfig) WorkerCount() int {
	if cfg.Workers == 0 {
		return DefaultWorkers
	}
	return cfg.Workers
}

// Policy returns the configured error policy, or halt.
func (cfg *DecodeConfig) Policy() ErrorPolicy {
	if cfg.OnError == "" {
		return PolicyHalt
	}
	return cfg.OnError
}

// SourceConfig locates the raw events.
type SourceConfig struct {
	// Path is a JSON-lines file of raw events, ordered by block height.
	Path string `koanf:"path"`

	// Cache holds the configuration for a file-based caching backend.
	Cache *CacheConfig `koanf:"cache"`
}

func (cfg *SourceConfig) Validate() error {
	if cfg.Path == "" {
		return fmt.Errorf("no event source path provided")
	}
	if cfg.Cache != nil {
		return cfg.Cache.Validate()
	}
	return nil
}

type CacheConfig struct {
	// CacheDir is the directory where the cache data is stored.
	CacheDir string `koanf:"cache_dir"`
}

func (cfg *CacheConfig) Validate() error {
	if cfg.CacheDir == "" {
		return fmt.Errorf("invalid cache filepath")
	}
	return nil
}

// SinkBackend is a record sink backend. It implements the pflag.Value interface.
type SinkBackend string

const (
	SinkPostgres SinkBackend = "postgres"
	SinkJSONL    SinkBackend = "jsonl"
)

func (sb *SinkBackend) String() string {
	return string(*sb)
}

func (sb *SinkBackend) Set(s string) error {
	switch SinkBackend(strings.ToLower(s)) {
	case SinkPostgres:
		*sb = SinkPostgres
	case SinkJSONL:
		*sb = SinkJSONL
	default:
		return fmt.Errorf("config: invalid sink backend: '%s'", s)
	}
	return nil
}

func (sb *SinkBackend) Type() string {
	return "[postgres,jsonl]"
}

// SinkConfig says where decoded records go.
type SinkConfig struct {
	Backend SinkBackend `koanf:"backend"`

	// Endpoint is the postgres connection string.
	Endpoint string `koanf:"endpoint"`
	// Migrations is the directory (or file:// URL) of schema migrations.
	Migrations string `koanf:"migrations"`

	// Path is the jsonl records file.
	Path string `koanf:"path"`
	// Quarantine is the jsonl file for failed events.
	Quarantine string `koanf:"quarantine"`

	// If true, all tables are dropped on startup to force a full re-decode.
	WipeStorage bool `koanf:"DANGER__WIPE_STORAGE_ON_STARTUP"`
}

func (cfg *SinkConfig) Validate() error {
	var sb SinkBackend
	if err := sb.Set(string(cfg.Backend)); err != nil {
		return err
	}
	switch sb {
	case SinkPostgres:
		if cfg.Endpoint == "" {
			return fmt.Errorf("malformed storage endpoint '%s'", cfg.Endpoint)
		}
		if cfg.Migrations == "" {
			return fmt.Errorf("invalid path to migrations '%s'", cfg.Migrations)
		}
	case SinkJSONL:
		if cfg.Path == "" {
			return fmt.Errorf("no records path provided")
		}
	}
	return nil
}

// CatalogConfig points at the chain's current event fingerprints, used by
// the completeness check.
type CatalogConfig struct {
	Fingerprints string `koanf:"fingerprints"`
}

func (cfg *CatalogConfig) Validate() error {
	if cfg.Fingerprints == "" {
		return fmt.Errorf("no fingerprints file provided")
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`

	// PprofEndpoint, if set, serves Go runtime profiles.
	PprofEndpoint string `koanf:"pprof_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	return initConfig(file.Provider(f))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider("EVENTNEXUS_", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		s = strings.TrimPrefix(s, "EVENTNEXUS_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
