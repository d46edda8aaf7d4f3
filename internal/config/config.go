package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Convention selects the commit message style the model is asked to follow.
type Convention string

const (
	Conventional Convention = "conventional"
	Imperative   Convention = "imperative"
	Custom       Convention = "custom"
)

// DiffMarker is the placeholder a custom template must contain; the staged
// diff is substituted for it when the prompt is built.
const DiffMarker = "{diff}"

const (
	configDirName  = ".commit-gen"
	configFileName = "config.json"

	dirPerm  = 0o700
	filePerm = 0o600 // the file holds the API key
)

// EnvAPIKey overrides the config file key when set. This is the CI/CD path:
// no config file is needed if the environment provides the key.
const EnvAPIKey = "GOOGLE_API_KEY"

var ErrNotConfigured = errors.New("not configured; run 'commit-gen setup'")

type CorruptConfigError struct {
	Path string
	Err  error
}

func (e *CorruptConfigError) Error() string {
	return fmt.Sprintf("corrupt config at %s: %v", e.Path, e.Err)
}

func (e *CorruptConfigError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write config at %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Config struct {
	APIKey         string     `json:"apiKey"`
	Convention     Convention `json:"commitConvention"`
	CustomTemplate string     `json:"customTemplate,omitempty"`
}

// Validate enforces the invariants that must hold before a config is saved:
// a known convention tag, and a custom template carrying the diff marker.
func (c Config) Validate() error {
	switch c.Convention {
	case Conventional, Imperative:
		return nil
	case Custom:
		if !strings.Contains(c.CustomTemplate, DiffMarker) {
			return &ValidationError{
				Field: "customTemplate",
				Msg:   fmt.Sprintf("custom template must contain the %s marker", DiffMarker),
			}
		}
		return nil
	default:
		return &ValidationError{
			Field: "commitConvention",
			Msg:   fmt.Sprintf("unknown convention %q", c.Convention),
		}
	}
}

// Path returns the config file location, ~/.commit-gen/config.json.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load reads the config file. A missing file is ErrNotConfigured; a file
// that exists but cannot be parsed, or that carries an unknown convention
// tag, is a CorruptConfigError.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrNotConfigured
		}
		return Config{}, &CorruptConfigError{Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &CorruptConfigError{Path: path, Err: err}
	}

	switch cfg.Convention {
	case Conventional, Imperative, Custom:
	default:
		return Config{}, &CorruptConfigError{
			Path: path,
			Err:  fmt.Errorf("unknown commit convention %q", cfg.Convention),
		}
	}

	return cfg, nil
}

// Save validates and writes the whole config. On a validation failure
// nothing is written, so the file on disk keeps its previous content.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return saveTo(path, cfg)
}

func saveTo(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, append(data, '\n'), filePerm); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// ResolveAPIKey returns the API key to use. The environment variable wins
// over the config file when both are present. Returns ErrNotConfigured when
// neither source provides a key.
func ResolveAPIKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	return cfg.APIKey, nil
}
