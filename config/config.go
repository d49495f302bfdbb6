// Package config loads the JSON settings shared by the CLI and the web server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"auto_sketch_enhancer/analyzer"
)

const (
	DefaultPath      = "config/config.json"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

// Config holds runtime settings.
type Config struct {
	LLM        *LLMConfig `json:"llm,omitempty"`
	ServerAddr string     `json:"server_addr,omitempty"`
	OutputDir  string     `json:"output_dir,omitempty"`
	CanvasSize int        `json:"canvas_size,omitempty"`
	// 0 表示不设超时。
	AnalysisTimeoutSeconds int    `json:"analysis_timeout_seconds,omitempty"`
	UploadURL              string `json:"upload_url,omitempty"`
}

// LLMConfig 视觉模型配置。
type LLMConfig struct {
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		LLM:        &LLMConfig{Provider: "gemini", Model: analyzer.DefaultGeminiModel, APIKeyEnv: DefaultAPIKeyEnv},
		ServerAddr: ":8080",
		OutputDir:  "output",
		CanvasSize: 1024,
	}
}

// Load reads JSON config from disk and fills unset fields from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.LLM == nil {
		cfg.LLM = Default().LLM
	}
	if cfg.CanvasSize < 0 || cfg.AnalysisTimeoutSeconds < 0 {
		return Config{}, errors.New("canvas_size and analysis_timeout_seconds must not be negative")
	}
	if cfg.CanvasSize == 0 {
		cfg.CanvasSize = Default().CanvasSize
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// APIKey resolves the inference credential: llm.api_key, then the environment variable
// named by llm.api_key_env.
func (c Config) APIKey() (string, error) {
	llm := c.LLM
	if llm == nil {
		llm = Default().LLM
	}
	if k := strings.TrimSpace(llm.APIKey); k != "" {
		return k, nil
	}
	env := llm.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	if k := strings.TrimSpace(os.Getenv(env)); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("api key not configured; set llm.api_key or %s", env)
}

// AnalysisTimeout converts AnalysisTimeoutSeconds; zero means none.
func (c Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

// ClientFactory builds the vision client factory for llm.provider.
func (c Config) ClientFactory() (analyzer.ClientFactory, error) {
	llm := c.LLM
	if llm == nil {
		llm = Default().LLM
	}
	switch llm.Provider {
	case "", "gemini", "openai":
		return analyzer.OpenAIFactory(analyzer.LLMSettings{
			Provider: llm.Provider,
			Model:    llm.Model,
			BaseURL:  llm.BaseURL,
		}), nil
	case "compatible":
		// 任意 OpenAI 兼容接口，需要 base_url 和 model。
		if llm.BaseURL == "" || llm.Model == "" {
			return nil, errors.New("llm provider compatible requires base_url and model")
		}
		return analyzer.OpenAIFactory(analyzer.LLMSettings{
			Provider: llm.Provider,
			Model:    llm.Model,
			BaseURL:  llm.BaseURL,
		}), nil
	case "mock":
		// 每次请求一个新实例，请求之间不共享状态。
		return func(string) (analyzer.VisionClient, error) { return &analyzer.MockVision{}, nil }, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", llm.Provider)
	}
}

// KeyProvider returns the credential lookup; the mock provider needs none.
func (c Config) KeyProvider() analyzer.KeyProvider {
	if c.LLM != nil && c.LLM.Provider == "mock" {
		return func() (string, error) { return "mock", nil }
	}
	return c.APIKey
}
