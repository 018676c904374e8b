package core

import (
	"fmt"
	"os"
	"time"

	"github.com/jo-hoe/setupguide/internal/common"
	"github.com/jo-hoe/setupguide/internal/imagelink"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 8080
	defaultLogLevel       = "info"
	defaultSVGFallback    = 512
	defaultMaxUploadBytes = 10 << 20
)

type Cache struct {
	Type             string        `yaml:"type" validate:"omitempty,oneof=memory sqlite redis"`
	ConnectionString string        `yaml:"connectionString"`
	TTL              time.Duration `yaml:"ttl" validate:"gte=0"`
}

type ServiceConfig struct {
	Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	// ContentPath overrides the embedded guide when set.
	ContentPath       string `yaml:"contentPath"`
	SVGFallbackWidth  int    `yaml:"svgFallbackWidth" validate:"gte=0"`
	SVGFallbackHeight int    `yaml:"svgFallbackHeight" validate:"gte=0"`
	MaxUploadBytes    int64  `yaml:"maxUploadBytes" validate:"gt=0"`
	// MaxImagePixels caps width*height of uploaded images before they are decoded.
	MaxImagePixels int64 `yaml:"maxImagePixels" validate:"gt=0"`
	Cache          Cache `yaml:"cache"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	config.applyDefaults()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.SVGFallbackWidth == 0 {
		c.SVGFallbackWidth = defaultSVGFallback
	}
	if c.SVGFallbackHeight == 0 {
		c.SVGFallbackHeight = defaultSVGFallback
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.MaxImagePixels == 0 {
		c.MaxImagePixels = imagelink.DefaultMaxPixels
	}
}

// validateConfig checks struct tags and the cache settings that depend on each other
func validateConfig(config *ServiceConfig) error {
	if err := common.ValidateStruct(config); err != nil {
		return err
	}
	switch config.Cache.Type {
	case "sqlite", "redis":
		if config.Cache.ConnectionString == "" {
			return fmt.Errorf("cache type %s requires a connectionString", config.Cache.Type)
		}
	}
	return nil
}
