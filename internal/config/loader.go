package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	substituteEnvVars(cfg)
	return cfg, nil
}

// LoadOrDefault loads configPath when it exists and falls back to
// DefaultConfig otherwise. Commands that can run without a config file
// (plan, chunk) use it.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := DefaultConfig()
		substituteEnvVars(cfg)
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		substituteEnvVars(cfg)
		return cfg, nil
	}
	return Load(configPath)
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.LLM.Host = expandEnvVar(cfg.LLM.Host)
	cfg.LLM.Model = expandEnvVar(cfg.LLM.Model)
	cfg.LLM.Token = expandEnvVar(cfg.LLM.Token)
	cfg.LLM.SchemaFile = expandEnvVar(cfg.LLM.SchemaFile)
	cfg.LLM.SystemPromptFile = expandEnvVar(cfg.LLM.SystemPromptFile)

	cfg.Metrics.Listen = expandEnvVar(cfg.Metrics.Listen)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
// Unset variables are left as written.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}
