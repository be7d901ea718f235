package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/solver"
)

const (
	ConfigDebug            = "debug"
	ConfigMaxBoardSize     = "max-board-size"
	ConfigTTSizePower      = "tt-size-power"
	ConfigTTMemoryFraction = "tt-memory-fraction"
	ConfigSeed             = "seed"
	ConfigThreads          = "threads"
	ConfigResultsDB        = "results-db"
	ConfigResultsDir       = "results-dir"
	ConfigNatsURL          = "nats-url"
	ConfigNatsSubject      = "nats-subject"
	ConfigCPUProfile       = "cpu-profile"
	ConfigBotMaxN          = "bot-max-n"
	ConfigConfigFile       = "config"
	DefaultNatsSubject     = "minigo.analyze"
	DefaultNatsURL         = "nats://127.0.0.1:4222"
	DefaultBotMaxN         = 28
	envPrefix              = "MINIGO"
)

type Config struct {
	*viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigMaxBoardSize, board.MaxSize)
	c.SetDefault(ConfigTTSizePower, solver.DefaultTableSizePowerOf2)
	c.SetDefault(ConfigTTMemoryFraction, 0.0)
	c.SetDefault(ConfigSeed, solver.DefaultSeed)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigResultsDB, "")
	c.SetDefault(ConfigResultsDir, ".")
	c.SetDefault(ConfigNatsURL, DefaultNatsURL)
	c.SetDefault(ConfigNatsSubject, DefaultNatsSubject)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigBotMaxN, DefaultBotMaxN)
	return c
}

// Load reads flags from args, then MINIGO_* environment variables, then
// an optional config file. Flags win over the environment, which wins
// over the file. Positional arguments are left in Args().
func (c *Config) Load(args []string) ([]string, error) {
	if c.Viper == nil {
		*c = *DefaultConfig()
	}
	fs := pflag.NewFlagSet("minigo", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigMaxBoardSize, board.MaxSize, "largest board the solver is sized for (at most 64)")
	fs.Int(ConfigTTSizePower, solver.DefaultTableSizePowerOf2, "log2 of the number of transposition table entries")
	fs.Float64(ConfigTTMemoryFraction, 0, "size the transposition table as this fraction of system memory (overrides tt-size-power)")
	fs.Uint64(ConfigSeed, solver.DefaultSeed, "seed for the zobrist hash keys")
	fs.Int(ConfigThreads, runtime.NumCPU(), "number of root moves searched in parallel")
	fs.String(ConfigResultsDB, "", "sqlite database holding computed results")
	fs.String(ConfigResultsDir, ".", "directory for exported result files")
	fs.String(ConfigNatsURL, DefaultNatsURL, "the NATS server URL")
	fs.String(ConfigNatsSubject, DefaultNatsSubject, "subject the analysis bot listens on")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this path")
	fs.Int(ConfigBotMaxN, DefaultBotMaxN, "largest empty board the bot will analyze")
	fs.String(ConfigConfigFile, "", "a YAML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if cfgFile := c.GetString(ConfigConfigFile); cfgFile != "" {
		c.SetConfigFile(cfgFile)
		if err := c.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}
	return fs.Args(), c.Validate()
}

// Validate checks the values that would otherwise fail deep inside the
// solver.
func (c *Config) Validate() error {
	if err := board.ValidateSize(c.GetInt(ConfigMaxBoardSize)); err != nil {
		return fmt.Errorf("%s: %w", ConfigMaxBoardSize, err)
	}
	p := c.GetInt(ConfigTTSizePower)
	if p < 0 || p > solver.MaxTableSizePowerOf2 {
		return fmt.Errorf("%s must be between 0 and %d, got %d", ConfigTTSizePower,
			solver.MaxTableSizePowerOf2, p)
	}
	f := c.GetFloat64(ConfigTTMemoryFraction)
	if f < 0 || f > 1 {
		return errors.New(ConfigTTMemoryFraction + " must be between 0 and 1")
	}
	return nil
}

// SolverSettings converts the config into solver settings.
func (c *Config) SolverSettings() solver.Settings {
	return solver.Settings{
		MaxBoardSize:        c.GetInt(ConfigMaxBoardSize),
		TableSizePowerOf2:   c.GetInt(ConfigTTSizePower),
		TableMemoryFraction: c.GetFloat64(ConfigTTMemoryFraction),
		Seed:                c.GetUint64(ConfigSeed),
		Threads:             c.GetInt(ConfigThreads),
	}
}

// AdjustRelativePaths resolves relative result paths against basePath.
func (c *Config) AdjustRelativePaths(basePath string) {
	for _, key := range []string{ConfigResultsDB, ConfigResultsDir} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basePath, p))
	}
}

// SanitizedSettings returns the settings safe to log.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u, ok := settings[ConfigNatsURL].(string); ok && strings.Contains(u, "@") {
		settings[ConfigNatsURL] = "<redacted>"
	}
	return settings
}
