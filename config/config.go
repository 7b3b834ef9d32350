package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cfg 全局配置，由 Init 加载
var Cfg *Config

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	JWT      JWTConfig      `yaml:"jwt"`
	Registry RegistryConfig `yaml:"registry"`
	PubMed   PubMedConfig   `yaml:"pubmed"`
	Model    ModelConfig    `yaml:"model"`
	Retry    RetryConfig    `yaml:"retry"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type JWTConfig struct {
	SecretKey string        `yaml:"secret_key"`
	Expiry    time.Duration `yaml:"expiry"`
}

// RegistryConfig ClinicalTrials.gov API 配置
type RegistryConfig struct {
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	Attempts uint          `yaml:"attempts"`
}

// PubMedConfig NCBI E-utilities 配置
type PubMedConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	MaxArticles int           `yaml:"max_articles"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ModelConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Name        string        `yaml:"name"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RetryConfig LLM 调用的重试策略
type RetryConfig struct {
	Attempts  uint          `yaml:"attempts"`
	MinDelay  time.Duration `yaml:"min_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
	MaxJitter time.Duration `yaml:"max_jitter"`
}

type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Init 加载配置文件并写入全局 Cfg
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

// Load 读取 YAML 配置，展开 ${ENV} 引用并填充默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 24 * time.Hour
	}

	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = "https://clinicaltrials.gov/api/v2"
	}
	if c.Registry.PageSize == 0 {
		c.Registry.PageSize = 50
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = 30 * time.Second
	}
	if c.Registry.Attempts == 0 {
		c.Registry.Attempts = 2
	}

	if c.PubMed.BaseURL == "" {
		c.PubMed.BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	}
	if c.PubMed.MaxArticles == 0 {
		c.PubMed.MaxArticles = 10
	}
	if c.PubMed.Timeout == 0 {
		c.PubMed.Timeout = 30 * time.Second
	}

	if c.Model.BaseURL == "" {
		c.Model.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model.Name == "" {
		c.Model.Name = "gpt-4o-mini"
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = 300 * time.Second
	}
	if c.Model.APIKey == "" {
		c.Model.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.MinDelay == 0 {
		c.Retry.MinDelay = time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 20 * time.Second
	}
	if c.Retry.MaxJitter == 0 {
		c.Retry.MaxJitter = time.Second
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = time.Hour
	}
	if c.Session.CleanupInterval == 0 {
		c.Session.CleanupInterval = 10 * time.Minute
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Registry.PageSize < 1 || c.Registry.PageSize > 1000 {
		errs = append(errs, fmt.Errorf("registry.page_size must be within [1, 1000], got %d", c.Registry.PageSize))
	}
	if c.Retry.MinDelay > c.Retry.MaxDelay {
		errs = append(errs, fmt.Errorf("retry.min_delay %s exceeds retry.max_delay %s", c.Retry.MinDelay, c.Retry.MaxDelay))
	}
	if c.PubMed.MaxArticles < 0 {
		errs = append(errs, errors.New("pubmed.max_articles must not be negative"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
