package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // collab-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type JWT struct {
	PrivateKeyPath string `yaml:"privateKeyPath"`
	PublicKeyPath  string `yaml:"publicKeyPath"`
	Issuer         string `yaml:"issuer"`
	Audience       string `yaml:"audience"`
	TTL            string `yaml:"ttl"`       // напр. "168h"
	ClockSkew      string `yaml:"clockSkew"` // напр. "30s"
}

type Auth struct {
	BcryptCost        int `yaml:"bcryptCost"`        // 0 — дефолт bcrypt
	PasswordMinLength int `yaml:"passwordMinLength"` // 0 — дефолт 6
}

type Judge0 struct {
	URL string `yaml:"url"`
}

type Assistant struct {
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Logging   Logging   `yaml:"logging"`
	Postgres  Postgres  `yaml:"postgres"`
	JWT       JWT       `yaml:"jwt"`
	Auth      Auth      `yaml:"auth"`
	Judge0    Judge0    `yaml:"judge0"`
	Assistant Assistant `yaml:"assistant"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.JWT.PrivateKeyPath == "" || c.JWT.PublicKeyPath == "" {
		return errors.New("jwt key paths are required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "collab-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "collab-service"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "collab-clients"
	}
	if c.Judge0.URL == "" {
		c.Judge0.URL = "http://localhost:2358"
	}
	if c.Assistant.URL == "" {
		c.Assistant.URL = "http://localhost:11434"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "phi"
	}
	return nil
}

func (c *Config) JWTTTL() time.Duration {
	return parseDurationOr(7*24*time.Hour, c.JWT.TTL)
}

func (c *Config) JWTClockSkew() time.Duration {
	return parseDurationOr(30*time.Second, c.JWT.ClockSkew)
}

func (c *Config) AssistantTimeout() time.Duration {
	return parseDurationOr(10*time.Second, c.Assistant.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
