package models

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

type Config struct {
	ServerAddr     string        `yaml:"server_addr"`
	DatabaseURL    string        `yaml:"database_url"`
	KafkaBroker    string        `yaml:"kafka_broker"`
	KafkaTopic     string        `yaml:"kafka_topic"`
	KafkaGroup     string        `yaml:"kafka_group"`
	RulesPath      string        `yaml:"rules_path"`
	PublicBaseURL  string        `yaml:"public_base_url"`
	Storage        StorageConfig `yaml:"storage"`
	StorageTimeout time.Duration `yaml:"storage_timeout"`
	BatchSizes     []int         `yaml:"batch_sizes"`
	DefaultFilter  Filter        `yaml:"default_filter"`
	LogLevel       string        `yaml:"log_level"`
}

// LoadConfig reads the service configuration. A .env file next to the
// working directory is loaded first so ${VAR} references in the YAML resolve.
func LoadConfig(path string) (*Config, error) {
	const op = "models.LoadConfig"

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return parseConfig([]byte(os.ExpandEnv(string(data))))
}

func parseConfig(data []byte) (*Config, error) {
	const op = "models.parseConfig"

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.applyDefaults()

	for _, s := range cfg.BatchSizes {
		if s <= 0 {
			return nil, fmt.Errorf("%s: batch size %d must be positive", op, s)
		}
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.RulesPath == "" {
		c.RulesPath = "resize4me_settings.json"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "https://s3.amazonaws.com"
	}
	if c.StorageTimeout <= 0 {
		c.StorageTimeout = 30 * time.Second
	}
	if len(c.BatchSizes) == 0 {
		c.BatchSizes = []int{300, 600, 900}
	}
	if c.DefaultFilter == 0 {
		c.DefaultFilter = FilterLanczos
	}
	if c.KafkaGroup == "" {
		c.KafkaGroup = "resize4me-group"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
