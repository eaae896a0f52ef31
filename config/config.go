// Package config reads settings from a .env file, an optional YAML file
// and STUDYDOCK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vinizap/studydock/kv"
	"github.com/vinizap/studydock/store"
	"gopkg.in/yaml.v3"
)

const envPrefix = "STUDYDOCK_"

type Config struct {
	Port     string `yaml:"port"`
	Password string `yaml:"password"`

	// Driver selects the kv backend: memory, badger or postgres.
	Driver      string `yaml:"driver"`
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"`
	Codec       string `yaml:"codec"`

	DebounceDelay  time.Duration `yaml:"debounce_delay"`
	OrphanPolicy   string        `yaml:"orphan_policy"`
	InsertPosition string        `yaml:"insert_position"`
	SeedFolders    []string      `yaml:"seed_folders"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		Driver:         "badger",
		DataDir:        "./data",
		Codec:          "json",
		DebounceDelay:  300 * time.Millisecond,
		OrphanPolicy:   string(store.OrphanLeave),
		InsertPosition: "append",
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load builds the configuration. Missing env files are ignored; a YAML
// file named by STUDYDOCK_CONFIG must exist.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("PASSWORD", &cfg.Password)
	str("DRIVER", &cfg.Driver)
	str("DATA_DIR", &cfg.DataDir)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("CODEC", &cfg.Codec)
	str("ORPHAN_POLICY", &cfg.OrphanPolicy)
	str("INSERT_POSITION", &cfg.InsertPosition)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v := os.Getenv(envPrefix + "DEBOUNCE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sDEBOUNCE_DELAY: %w", envPrefix, err)
		}
		cfg.DebounceDelay = d
	}
	if v := os.Getenv(envPrefix + "SEED_FOLDERS"); v != "" {
		cfg.SeedFolders = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.SeedFolders = append(cfg.SeedFolders, name)
			}
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Driver {
	case "memory", "badger":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.Driver == "badger" && c.DataDir == "" {
		return errors.New("data_dir is required for the badger driver")
	}
	if _, err := kv.CodecByName(c.Codec); err != nil {
		return err
	}
	if _, err := store.ParseOrphanPolicy(c.OrphanPolicy); err != nil {
		return err
	}
	if _, err := store.ParseInsertPosition(c.InsertPosition); err != nil {
		return err
	}
	return nil
}
