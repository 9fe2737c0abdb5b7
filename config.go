package depot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkCapacity     = 250
	DefaultParallelBatchSize = 4
)

// Config holds the process-wide defaults new worlds start from.
var Config config = config{
	chunkCapacity:     DefaultChunkCapacity,
	parallelBatchSize: DefaultParallelBatchSize,
}

type config struct {
	chunkCapacity     int
	parallelBatchSize int
	logger            *zap.Logger
}

// SetChunkCapacity sets the default number of rows per chunk.
func (c *config) SetChunkCapacity(n int) {
	c.chunkCapacity = n
}

// SetParallelBatchSize sets the default number of chunks per parallel task.
func (c *config) SetParallelBatchSize(n int) {
	c.parallelBatchSize = n
}

// SetLogger sets the logger used by worlds created without one.
func (c *config) SetLogger(log *zap.Logger) {
	c.logger = log
}

// WorldConfig configures a single World.
type WorldConfig struct {
	ChunkCapacity     int           `toml:"chunk_capacity" yaml:"chunk_capacity"`
	ParallelBatchSize int           `toml:"parallel_batch_size" yaml:"parallel_batch_size"`
	Logging           LoggingConfig `toml:"logging" yaml:"logging"`

	// Logger overrides Logging when set.
	Logger *zap.Logger `toml:"-" yaml:"-"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// DefaultWorldConfig returns a WorldConfig filled from Config.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		ChunkCapacity:     Config.chunkCapacity,
		ParallelBatchSize: Config.parallelBatchSize,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Logger: Config.logger,
	}
}

func (c *WorldConfig) normalize() {
	if c.ChunkCapacity <= 0 {
		c.ChunkCapacity = DefaultChunkCapacity
	}
	if c.ParallelBatchSize <= 0 {
		c.ParallelBatchSize = DefaultParallelBatchSize
	}
}

// LoadConfig reads a WorldConfig from a .toml, .yaml or .yml file. Fields
// missing from the file keep their defaults.
func LoadConfig(path string) (WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WorldConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultWorldConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return WorldConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return WorldConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return WorldConfig{}, fmt.Errorf("config %s: unsupported format %q", path, filepath.Ext(path))
	}
	cfg.normalize()
	return cfg, nil
}

// NewLogger builds a zap logger. Format "json" selects the production
// encoder, anything else a colored console encoder.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
