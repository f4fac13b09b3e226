// Package config loads textgend settings from YAML, JSON or TOML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled from Default.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Model is an ID, name or path; empty serves the first model found.
	Model string `json:"model" yaml:"model" toml:"model"`
	// MaxTokens is the server-wide ceiling on max_tokens.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	// RequestTimeoutSeconds bounds one completion; negative disables.
	RequestTimeoutSeconds int   `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	ContextSize           int   `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads               int   `json:"threads" yaml:"threads" toml:"threads"`
	MaxBodyBytes          int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	// LlamaServerURL selects a running llama.cpp server instead of loading
	// the model in-process.
	LlamaServerURL string `json:"llama_server_url" yaml:"llama_server_url" toml:"llama_server_url"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		ModelsDir:             "~/models/llm",
		MaxTokens:             4096,
		RequestTimeoutSeconds: 300,
		ContextSize:           2048,
		MaxBodyBytes:          1 << 20,
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// Merge returns c with every non-zero field of over applied on top.
func (c Config) Merge(over Config) Config {
	if over.Addr != "" {
		c.Addr = over.Addr
	}
	if over.ModelsDir != "" {
		c.ModelsDir = over.ModelsDir
	}
	if over.Model != "" {
		c.Model = over.Model
	}
	if over.MaxTokens != 0 {
		c.MaxTokens = over.MaxTokens
	}
	if over.RequestTimeoutSeconds != 0 {
		c.RequestTimeoutSeconds = over.RequestTimeoutSeconds
	}
	if over.ContextSize != 0 {
		c.ContextSize = over.ContextSize
	}
	if over.Threads != 0 {
		c.Threads = over.Threads
	}
	if over.MaxBodyBytes != 0 {
		c.MaxBodyBytes = over.MaxBodyBytes
	}
	if over.LlamaServerURL != "" {
		c.LlamaServerURL = over.LlamaServerURL
	}
	if over.LogLevel != "" {
		c.LogLevel = over.LogLevel
	}
	if over.LogFormat != "" {
		c.LogFormat = over.LogFormat
	}
	if over.CORSEnabled {
		c.CORSEnabled = true
	}
	if len(over.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	return c
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr is required")
	case c.MaxTokens < 0:
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	case c.ContextSize < 0:
		return fmt.Errorf("context_size must not be negative, got %d", c.ContextSize)
	case c.Threads < 0:
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}
