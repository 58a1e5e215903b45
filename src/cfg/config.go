package cfg

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STORAGE"

// minBlockSize leaves room for the log block header and one small record.
const minBlockSize = 64

type Config struct {
	Environment Environment `default:"dev"`

	DataDir   string `split_words:"true" default:"./data"`
	BlockSize int    `split_words:"true" default:"4096"`
	PoolSize  uint64 `split_words:"true" default:"8"`
	LogFile   string `split_words:"true" default:"storage.log"`
	Replacer  string `default:"fifo"`
}

// LoadConfig reads STORAGE_* variables, first loading the .env file at path
// when one is given.
func LoadConfig(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return err
	}

	if c.BlockSize < minBlockSize {
		return fmt.Errorf("block size must be at least %d, got %d", minBlockSize, c.BlockSize)
	}

	if c.PoolSize == 0 {
		return errors.New("pool size must be positive")
	}

	if c.LogFile == "" {
		return errors.New("log file name is empty")
	}

	if c.Replacer != "fifo" && c.Replacer != "lru" {
		return fmt.Errorf("unknown replacer %q", c.Replacer)
	}

	return nil
}

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"

	DefaultEnv = EnvDev
)

type Environment string

func (e Environment) Validate() error {
	if e != EnvDev && e != EnvProd {
		return fmt.Errorf("invalid environment %q", e)
	}

	return nil
}
