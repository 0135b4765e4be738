// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/credmint/txbuilder"
)

type ctxKey string

const configContextKey ctxKey = "credmint.config"

const envPrefix = "credmint"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type ApiConfig struct {
	ListenAddress  string `yaml:"listenAddress"  envconfig:"LISTEN_ADDRESS"`
	ListenPort     uint   `yaml:"listenPort"     envconfig:"LISTEN_PORT"`
	ImageURLPrefix string `yaml:"imageUrlPrefix" envconfig:"IMAGE_URL_PREFIX"`
}

type MetricsConfig struct {
	ListenAddress string `yaml:"listenAddress" envconfig:"LISTEN_ADDRESS"`
	ListenPort    uint   `yaml:"listenPort"    envconfig:"LISTEN_PORT"`
}

type BlockfrostConfig struct {
	BaseURL   string        `yaml:"baseUrl"   envconfig:"BASE_URL"`
	ProjectId string        `yaml:"projectId" envconfig:"PROJECT_ID"`
	Timeout   time.Duration `yaml:"timeout"   envconfig:"TIMEOUT"`

	// Use static protocol parameters instead of querying the current epoch
	StaticParams bool `yaml:"staticParams" envconfig:"STATIC_PARAMS"`
}

type BatchConfig struct {
	Workers     int           `yaml:"workers"     envconfig:"WORKERS"`
	ItemTimeout time.Duration `yaml:"itemTimeout" envconfig:"ITEM_TIMEOUT"`
}

type RenderConfig struct {
	Mode    string        `yaml:"mode"    envconfig:"MODE"`
	URL     string        `yaml:"url"     envconfig:"URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

type UploadConfig struct {
	Mode      string `yaml:"mode"      envconfig:"MODE"`
	PinataJWT string `yaml:"pinataJwt" envconfig:"PINATA_JWT"`
	PinataURL string `yaml:"pinataUrl" envconfig:"PINATA_URL"`
	S3Bucket  string `yaml:"s3Bucket"  envconfig:"S3_BUCKET"`
	S3Prefix  string `yaml:"s3Prefix"  envconfig:"S3_PREFIX"`
	S3Region  string `yaml:"s3Region"  envconfig:"S3_REGION"`

	// Custom S3 endpoint, such as a local minio
	S3Endpoint string `yaml:"s3Endpoint" envconfig:"S3_ENDPOINT"`
}

type DatabaseConfig struct {
	Driver  string `yaml:"driver"  envconfig:"DRIVER"`
	DataDir string `yaml:"dataDir" envconfig:"DATA_DIR"`
	Dsn     string `yaml:"dsn"     envconfig:"DSN"`
}

type MintConfig struct {
	// Validity window in slots after the current tip. 0 disables the TTL
	TtlOffset uint64 `yaml:"ttlOffset" envconfig:"TTL_OFFSET"`
}

type Config struct {
	Api             ApiConfig                `yaml:"api"`
	Metrics         MetricsConfig            `yaml:"metrics"`
	Network         string                   `yaml:"network"         envconfig:"NETWORK"`
	Blockfrost      BlockfrostConfig         `yaml:"blockfrost"`
	ProtocolParams  txbuilder.ProtocolParams `yaml:"protocolParams"  envconfig:"PROTOCOL_PARAMS"`
	Batch           BatchConfig              `yaml:"batch"`
	Render          RenderConfig             `yaml:"render"`
	Upload          UploadConfig             `yaml:"upload"`
	Database        DatabaseConfig           `yaml:"database"`
	Mint            MintConfig               `yaml:"mint"`
	ShutdownTimeout time.Duration            `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

func defaultConfig() *Config {
	return &Config{
		Api: ApiConfig{
			ListenAddress:  "0.0.0.0",
			ListenPort:     8080,
			ImageURLPrefix: "ipfs://",
		},
		Metrics: MetricsConfig{
			ListenAddress: "0.0.0.0",
			ListenPort:    12799,
		},
		Network: "preprod",
		Blockfrost: BlockfrostConfig{
			Timeout: 30 * time.Second,
		},
		ProtocolParams: txbuilder.DefaultProtocolParams,
		Batch: BatchConfig{
			Workers:     4,
			ItemTimeout: 2 * time.Minute,
		},
		Render: RenderConfig{
			Mode:    "local",
			Timeout: 60 * time.Second,
		},
		Upload: UploadConfig{
			Mode:      "pinata",
			PinataURL: "https://api.pinata.cloud",
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			DataDir: ".credmint",
		},
		Mint: MintConfig{
			TtlOffset: 7200,
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

var globalConfig = defaultConfig()

// LoadConfig overlays an optional YAML file and then CREDMINT_ environment
// variables onto the defaults
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.credmint/credmint.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".credmint", "credmint.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/credmint/credmint.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

// Validate checks option values with a fixed set of choices
func (c *Config) Validate() error {
	switch c.Network {
	case "mainnet", "preprod", "preview":
	default:
		return fmt.Errorf("invalid network: %q", c.Network)
	}
	switch c.Render.Mode {
	case "local":
	case "remote":
		if c.Render.URL == "" {
			return fmt.Errorf("render.url is required in remote mode")
		}
	default:
		return fmt.Errorf("invalid render mode: %q (must be 'local' or 'remote')", c.Render.Mode)
	}
	switch c.Upload.Mode {
	case "pinata", "s3":
	default:
		return fmt.Errorf("invalid upload mode: %q (must be 'pinata' or 's3')", c.Upload.Mode)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("invalid database driver: %q", c.Database.Driver)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	return nil
}

const redactedValue = "REDACTED"

// Redacted returns a copy of the config with credentials masked, for logging
func (c *Config) Redacted() Config {
	ret := *c
	if ret.Blockfrost.ProjectId != "" {
		ret.Blockfrost.ProjectId = redactedValue
	}
	if ret.Upload.PinataJWT != "" {
		ret.Upload.PinataJWT = redactedValue
	}
	// A DSN can carry a database password
	if ret.Database.Dsn != "" {
		ret.Database.Dsn = redactedValue
	}
	return ret
}

func GetConfig() *Config {
	return globalConfig
}
