// Package config loads application configuration from an optional YAML file
// and the environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Email     EmailConfig     `yaml:"email" mapstructure:"email"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds language-model API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// EmailConfig holds outbound email transport settings. Exactly one
// transport is active per process: "smtp", "resend", or "none". The
// default "auto" picks resend when a Resend key is present, smtp when
// sender credentials are present, and none otherwise.
type EmailConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"`
	Sender    string `yaml:"sender" mapstructure:"sender"`
	Password  string `yaml:"password" mapstructure:"password"`
	SMTPHost  string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	ResendKey string `yaml:"resend_key" mapstructure:"resend_key"`
}

// ResolveTransport returns the concrete transport name for this config.
func (e EmailConfig) ResolveTransport() string {
	if e.Transport != "" && e.Transport != "auto" {
		return e.Transport
	}
	if e.ResendKey != "" {
		return "resend"
	}
	if e.Sender != "" && e.Password != "" {
		return "smtp"
	}
	return "none"
}

// PipelineConfig controls gating and the per-run send ceiling.
type PipelineConfig struct {
	AutoSend  bool   `yaml:"auto_send" mapstructure:"auto_send"`
	Threshold string `yaml:"threshold" mapstructure:"threshold"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// PathsConfig holds input/output file locations.
type PathsConfig struct {
	Leads   string `yaml:"leads" mapstructure:"leads"`
	State   string `yaml:"state" mapstructure:"state"`
	Drafts  string `yaml:"drafts" mapstructure:"drafts"`
	Prompts string `yaml:"prompts" mapstructure:"prompts"`
}

// StoreConfig selects the state store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RunConfig selects manual or scheduled execution.
type RunConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"`
	IntervalMins int    `yaml:"interval_mins" mapstructure:"interval_mins"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnvBindings maps config keys to the bare environment variable names
// the original deployment used, so existing .env files keep working without
// the LEADFLOW_ prefix.
var legacyEnvBindings = map[string]string{
	"anthropic.key":         "MODEL_API_KEY",
	"anthropic.model":       "LLM_MODEL",
	"anthropic.temperature": "TEMPERATURE",
	"anthropic.max_tokens":  "MAX_TOKENS",
	"pipeline.auto_send":    "AUTO_SEND_EMAILS",
	"pipeline.threshold":    "AUTO_APPROVE_THRESHOLD",
	"pipeline.batch_size":   "EMAIL_BATCH_SIZE",
	"email.sender":          "EMAIL_SENDER",
	"email.password":        "EMAIL_PASSWORD",
	"email.resend_key":      "RESEND_API_KEY",
	"run.mode":              "RUN_MODE",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnvBindings {
		prefixed := "LEADFLOW_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", env)
		}
	}

	// Defaults
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.max_tokens", 1000)
	v.SetDefault("anthropic.rps", 2.0)
	v.SetDefault("email.transport", "auto")
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("pipeline.auto_send", false)
	v.SetDefault("pipeline.threshold", "Hot")
	v.SetDefault("pipeline.batch_size", 2)
	v.SetDefault("paths.leads", "data/leads.csv")
	v.SetDefault("paths.state", "data/state.csv")
	v.SetDefault("paths.drafts", "outputs/drafts")
	v.SetDefault("paths.prompts", "prompts.yaml")
	v.SetDefault("store.driver", "csv")
	v.SetDefault("run.mode", "manual")
	v.SetDefault("run.interval_mins", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ValidateLLM checks that the credentials required for classification and
// drafting are present. Called before any lead is processed.
func (c *Config) ValidateLLM() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: MODEL_API_KEY is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
