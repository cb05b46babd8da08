package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	App struct {
		SecretKey      string `yaml:"secretKey"`
		MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	} `yaml:"app"`

	Storage struct {
		Driver    string `yaml:"driver"` // "local" or "minio"
		UploadDir string `yaml:"uploadDir"`

		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	Analysis struct {
		DelayMS int  `yaml:"delayMs"`
		Strict  bool `yaml:"strict"`
	} `yaml:"analysis"`
}

// Load reads config.yaml, then applies env overrides and defaults.
// A missing config file is fine; the defaults run the demo as-is.
func Load(path string) (*Config, error) {
	// .env is optional and only seeds the environment
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, err
	}

	cfg.loadEnv()
	cfg.loadDefaults()
	return &cfg, nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.App.SecretKey = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Storage.UploadDir = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.App.MaxUploadBytes = n
		}
	}
}

func (c *Config) loadDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.App.SecretKey == "" {
		c.App.SecretKey = "crop-disease-secret-key-12345"
	}
	if c.App.MaxUploadBytes == 0 {
		c.App.MaxUploadBytes = 16 << 20 // 16 MiB
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "static/uploads"
	}
	if c.Analysis.DelayMS == 0 {
		c.Analysis.DelayMS = 1000
	}
}

// Addr builds the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Delay returns the simulated inference latency.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Analysis.DelayMS) * time.Millisecond
}
