package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the credentials file read when none is given
const DefaultPath = "credentials.yml"

// Label providers
const (
	ProviderRekognition = "rekognition"
	ProviderVision      = "vision"
)

// Errors for credentials validation
var (
	ErrMissingBucket   = errors.New("bucket_name is required")
	ErrMissingRegion   = errors.New("region is required")
	ErrUnknownProvider = errors.New("unknown label provider")
)

// Config holds the storage and labeling service settings for a run
type Config struct {
	BucketName      string `yaml:"bucket_name" env:"VIDEO_LABELER_BUCKET_NAME"`
	Region          string `yaml:"region" env:"VIDEO_LABELER_REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"VIDEO_LABELER_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"VIDEO_LABELER_SECRET_ACCESS_KEY"`

	// Endpoint overrides the S3 endpoint, e.g. a local MinIO at localhost:9000
	Endpoint   string `yaml:"endpoint,omitempty" env:"VIDEO_LABELER_ENDPOINT"`
	DisableSSL bool   `yaml:"disable_ssl,omitempty" env:"VIDEO_LABELER_DISABLE_SSL"`

	LabelProvider         string `yaml:"label_provider,omitempty" env:"VIDEO_LABELER_LABEL_PROVIDER"`
	GoogleCredentialsFile string `yaml:"google_credentials_file,omitempty" env:"VIDEO_LABELER_GOOGLE_CREDENTIALS_FILE"`
}

// Load reads and parses the credentials file at path, then applies any
// VIDEO_LABELER_* environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Validate checks the fields every run needs
func (c *Config) Validate() error {
	if c.BucketName == "" {
		return ErrMissingBucket
	}
	if c.Region == "" {
		return ErrMissingRegion
	}
	switch c.Provider() {
	case ProviderRekognition, ProviderVision:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LabelProvider)
	}
	return nil
}

// Provider returns the configured label provider, defaulting to rekognition
func (c *Config) Provider() string {
	if c.LabelProvider == "" {
		return ProviderRekognition
	}
	return c.LabelProvider
}
