package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DelegateModels names the model used at each delegation tier.
type DelegateModels struct {
	Quick    string `yaml:"quick" json:"quick"`
	Balanced string `yaml:"balanced" json:"balanced"`
	Thorough string `yaml:"thorough" json:"thorough"`
}

// Config is lash's merged configuration: global file, project file, then
// environment, each layer overriding the previous field-by-field.
type Config struct {
	Model           string         `yaml:"model" json:"model"`
	DelegateModels  DelegateModels `yaml:"delegate_models" json:"delegate_models"`
	Provider        string         `yaml:"provider" json:"provider"`
	APIKey          string         `yaml:"api_key" json:"api_key"`
	SandboxWorker   string         `yaml:"sandbox_worker" json:"sandbox_worker"`
	MaxIterations   int            `yaml:"max_iterations" json:"max_iterations"`
	MaxContextChars int            `yaml:"max_context_chars" json:"max_context_chars"`
	LogLevel        string         `yaml:"log_level" json:"log_level"`
	LogToFile       bool           `yaml:"log_to_file" json:"log_to_file"`
}

// Default returns lash's baked-in defaults, the bottom layer under the
// global config file, the project config file, and environment overrides.
func Default() Config {
	return Config{
		Model: "claude-sonnet-4",
		DelegateModels: DelegateModels{
			Quick:    "claude-haiku-4",
			Balanced: "claude-sonnet-4",
			Thorough: "claude-opus-4",
		},
		Provider:        "anthropic",
		SandboxWorker:   "sandboxworker",
		MaxIterations:   50,
		MaxContextChars: 120_000,
		LogLevel:        "info",
	}
}

// Load builds a Config by layering, in order: defaults, the global config
// file (~/.config/lash/lash.yaml), the project config file
// (<directory>/.lash/lash.yaml), a .env file in directory (via godotenv,
// loaded into the process environment without overwriting variables
// already set), then LASH_*-prefixed environment variables. Config files
// may contain // and /* */ comments; they are stripped before YAML/JSON
// decoding.
func Load(directory string) (Config, error) {
	cfg := Default()

	if err := mergeFile(&cfg, GlobalConfigPath()); err != nil {
		return Config{}, fmt.Errorf("global config: %w", err)
	}
	if err := mergeFile(&cfg, ProjectConfigPath(directory)); err != nil {
		return Config{}, fmt.Errorf("project config: %w", err)
	}

	envFile := filepath.Join(directory, ".env")
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to the project config file under directory, creating
// .lash if necessary.
func (c Config) Save(directory string) error {
	path := ProjectConfigPath(directory)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func mergeFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	stripped := jsonc.ToJSON(raw)

	var layer Config
	// lash.yaml is YAML by convention but JSONC-stripped JSON is also
	// valid YAML, so a single decode path handles both.
	if err := yaml.Unmarshal(stripped, &layer); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mergeInto(cfg, layer)
	return nil
}

// mergeInto overlays non-zero fields of layer onto cfg.
func mergeInto(cfg *Config, layer Config) {
	if layer.Model != "" {
		cfg.Model = layer.Model
	}
	if layer.DelegateModels.Quick != "" {
		cfg.DelegateModels.Quick = layer.DelegateModels.Quick
	}
	if layer.DelegateModels.Balanced != "" {
		cfg.DelegateModels.Balanced = layer.DelegateModels.Balanced
	}
	if layer.DelegateModels.Thorough != "" {
		cfg.DelegateModels.Thorough = layer.DelegateModels.Thorough
	}
	if layer.Provider != "" {
		cfg.Provider = layer.Provider
	}
	if layer.APIKey != "" {
		cfg.APIKey = layer.APIKey
	}
	if layer.SandboxWorker != "" {
		cfg.SandboxWorker = layer.SandboxWorker
	}
	if layer.MaxIterations != 0 {
		cfg.MaxIterations = layer.MaxIterations
	}
	if layer.MaxContextChars != 0 {
		cfg.MaxContextChars = layer.MaxContextChars
	}
	if layer.LogLevel != "" {
		cfg.LogLevel = layer.LogLevel
	}
	if layer.LogToFile {
		cfg.LogToFile = layer.LogToFile
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LASH_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LASH_DELEGATE_MODEL_QUICK"); v != "" {
		cfg.DelegateModels.Quick = v
	}
	if v := os.Getenv("LASH_DELEGATE_MODEL_BALANCED"); v != "" {
		cfg.DelegateModels.Balanced = v
	}
	if v := os.Getenv("LASH_DELEGATE_MODEL_THOROUGH"); v != "" {
		cfg.DelegateModels.Thorough = v
	}
	if v := os.Getenv("LASH_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("LASH_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.APIKey == "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("LASH_SANDBOX_WORKER"); v != "" {
		cfg.SandboxWorker = v
	}
	if v := os.Getenv("LASH_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIterations = n
		}
	}
	if v := os.Getenv("LASH_MAX_CONTEXT_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxContextChars = n
		}
	}
	if v := os.Getenv("LASH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LASH_LOG_TO_FILE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogToFile = b
		}
	}
}
