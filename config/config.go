/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the application configuration from .env, a YAML file
// and environment variables, in that order of precedence from low to high.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/roster/api"
	"github.com/tomoncle/roster/database"
	"github.com/tomoncle/roster/utils"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	Web      WebConfig       `yaml:"web"`
	Seed     SeedConfig      `yaml:"seed"`
	Log      LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	Mode            string        `yaml:"mode" validate:"oneof=debug release test"`
	CORSAllowAll    bool          `yaml:"cors_allow_all"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type WebConfig struct {
	Pageable api.PageableConfig `yaml:"pageable"`
}

// SeedConfig controls the sample members inserted into an empty database.
type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
	Members int  `yaml:"members" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file is given: an
// in-memory SQLite database seeded with 100 members.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			CORSAllowAll:    true,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: *database.MemoryConfig(),
		Web:      WebConfig{Pageable: api.DefaultPageableConfig()},
		Seed:     SeedConfig{Enabled: true, Members: 100},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads .env if present, then the YAML file at path over the defaults,
// then the SERVER_*, LOG_* and SEED_* environment overrides, and validates
// the result. DB_* overrides are applied when the database is created.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.overrideFromEnv()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	c.Server.Addr = utils.EnvDefaultString("SERVER_ADDR", c.Server.Addr)
	c.Server.Mode = utils.EnvDefaultString("SERVER_MODE", c.Server.Mode)
	c.Server.CORSAllowAll = utils.EnvDefaultBool("SERVER_CORS_ALLOW_ALL", c.Server.CORSAllowAll)
	c.Log.Level = utils.EnvDefaultString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.EnvDefaultString("LOG_FORMAT", c.Log.Format)
	c.Log.File = utils.EnvDefaultString("LOG_FILE", c.Log.File)
	c.Seed.Enabled = utils.EnvDefaultBool("SEED_ENABLED", c.Seed.Enabled)
	c.Seed.Members = utils.EnvDefaultInt("SEED_MEMBERS", c.Seed.Members)
}
