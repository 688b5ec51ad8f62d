package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeWS   = "WS"
	ModeREST = "REST"

	PriceSourceTickers   = "tickers"
	PriceSourceMarkPrice = "mark-price"
)

type Config struct {
	BaseURL      string            `yaml:"base_url"`
	PublicWsURL  string            `yaml:"public_ws_url"`
	PrivateWsURL string            `yaml:"private_ws_url"`
	Mode         string            `yaml:"mode"`
	Simulated    bool              `yaml:"simulated"`
	PriceSource  string            `yaml:"price_source"`
	Timeout      time.Duration     `yaml:"-"`
	Heartbeat    time.Duration     `yaml:"-"`
	Credentials  CredentialsConfig `yaml:"credentials"`
	Redis        RedisConfig       `yaml:"redis"`
	Kafka        KafkaConfig       `yaml:"kafka"`
	OrderLogDir  string            `yaml:"order_log_dir"`
}

type CredentialsConfig struct {
	APIKey     string `yaml:"api_key"`
	SecretKey  string `yaml:"secret_key"`
	Passphrase string `yaml:"passphrase"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
}

// LoadConfig 读取yaml配置,环境变量覆盖密钥
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		BaseURL:      "https://www.okx.com",
		PublicWsURL:  "wss://ws.okx.com:8443/ws/v5/public",
		PrivateWsURL: "wss://ws.okx.com:8443/ws/v5/private",
		Mode:         ModeWS,
		PriceSource:  PriceSourceTickers,
		Timeout:      10 * time.Second,
		Heartbeat:    20 * time.Second,
		OrderLogDir:  "logs/orders",
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 时长字段以 "10s" 这类写法配置，单独解析
	var durations struct {
		Timeout   string `yaml:"timeout"`
		Heartbeat string `yaml:"heartbeat"`
	}
	if err := yaml.Unmarshal(data, &durations); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if durations.Timeout != "" {
		d, err := time.ParseDuration(durations.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		config.Timeout = d
	}
	if durations.Heartbeat != "" {
		d, err := time.ParseDuration(durations.Heartbeat)
		if err != nil {
			return nil, fmt.Errorf("invalid heartbeat: %w", err)
		}
		config.Heartbeat = d
	}

	if v := os.Getenv("OKX_API_KEY"); v != "" {
		config.Credentials.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("OKX_SECRET_KEY"); v != "" {
		config.Credentials.SecretKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("OKX_PASSPHRASE"); v != "" {
		config.Credentials.Passphrase = strings.TrimSpace(v)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Mode != ModeWS && cfg.Mode != ModeREST {
		return fmt.Errorf("mode must be %s or %s", ModeWS, ModeREST)
	}
	if cfg.PriceSource != PriceSourceTickers && cfg.PriceSource != PriceSourceMarkPrice {
		return fmt.Errorf("price_source must be %s or %s", PriceSourceTickers, PriceSourceMarkPrice)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if cfg.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be greater than 0")
	}
	return nil
}
