package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".airdrop.yaml"

// ErrConfigNotFound is returned when an explicitly requested configuration
// file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load builds the effective configuration: defaults, then the YAML file at
// path (or a discovered one when path is empty), then environment
// variables. A missing file is only an error when the path was explicit.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	found := FindConfigFile(path)
	if found != "" {
		if err := loadFile(&cfg, found); err != nil {
			return cfg, err
		}
	} else if explicit {
		return cfg, ErrConfigNotFound
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// FindConfigFile resolves the configuration file path: the explicit path if
// given, otherwise .airdrop.yaml in the current directory, then in the home
// directory. Empty string when nothing is found.
func FindConfigFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays AIRDROP_* environment variables onto the config.
// A .env file in the working directory is picked up first; absence is fine.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("AIRDROP_RPC_URL"); v != "" {
		cfg.RpcURL = v
	}
	if v := os.Getenv("AIRDROP_CONTRACT"); v != "" {
		cfg.ContractAddress = v
	}
	if v := os.Getenv("AIRDROP_KEYS_FILE"); v != "" {
		cfg.KeysFile = v
	}
	if v := os.Getenv("AIRDROP_PROXY_FILE"); v != "" {
		cfg.ProxyFile = v
	}
	if v := os.Getenv("AIRDROP_ELIGIBILITY_URL"); v != "" {
		cfg.EligibilityURL = v
	}
	if v := os.Getenv("AIRDROP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("AIRDROP_BACKOFF_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.BackoffFactor = f
		}
	}
	if v := os.Getenv("AIRDROP_POST_CLAIM_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PostClaimWait = d
		}
	}
	if v := os.Getenv("AIRDROP_RECHECK_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RecheckWait = d
		}
	}
}
