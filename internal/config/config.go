package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration.
type Config struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Params    ParamsConfig    `mapstructure:"params"`
	State     StateConfig     `mapstructure:"state"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Log       LogConfig       `mapstructure:"log"`
}

type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Organization string        `mapstructure:"organization"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	Temperature  float64       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ParamsConfig enables reading the API key from SSM Parameter Store.
type ParamsConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// StateConfig enables the DynamoDB task log.
type StateConfig struct {
	Table string `mapstructure:"table"`
}

type ArtifactsConfig struct {
	CodeTemplate string `mapstructure:"code_template"`
	BackendMain  string `mapstructure:"backend_main"`
	APISchema    string `mapstructure:"api_schema"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UsesAWS reports whether any AWS-backed component is configured.
func (c *Config) UsesAWS() bool {
	return c.Params.Prefix != "" || c.State.Table != ""
}

// Validate returns an error for configurations that cannot work and
// warnings for suspicious ones.
func (c *Config) Validate() ([]string, error) {
	if c.OpenAI.APIKey == "" && c.Params.Prefix == "" {
		return nil, errors.New("config: OPEN_AI_KEY is not set and no parameter store prefix is configured")
	}
	var warnings []string
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("openai temperature %.2f is outside recommended range [0.0, 2.0]", c.OpenAI.Temperature))
	}
	if c.OpenAI.Timeout < 0 {
		warnings = append(warnings, fmt.Sprintf("openai timeout %s is negative", c.OpenAI.Timeout))
	}
	return warnings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("artifacts.code_template", "/web_template/code_template.rs")
	v.SetDefault("artifacts.backend_main", "/web_template/main.rs")
	v.SetDefault("artifacts.api_schema", "/autodevgpt/schemas/api_schema.json")
	v.SetDefault("params.prefix", "")
	v.SetDefault("state.table", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads an optional config file, then the environment. Variables from
// envFile (when it exists) are added to the environment without overriding
// values already set. Environment keys use the AUTODEV_ prefix, except the
// OpenAI credentials which also accept OPEN_AI_KEY and OPEN_AI_ORG.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("AUTODEV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "AUTODEV_OPENAI_API_KEY", "OPEN_AI_KEY")
	_ = v.BindEnv("openai.organization", "AUTODEV_OPENAI_ORGANIZATION", "OPEN_AI_ORG")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	return &cfg, nil
}
