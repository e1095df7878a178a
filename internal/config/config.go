package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sahay-api/internal/docqa"
)

// Config holds application configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // "debug" or "release"
	} `yaml:"server"`

	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`

	Gemini struct {
		APIKey    string `yaml:"api_key"`
		ModelName string `yaml:"model_name"`
	} `yaml:"gemini"`

	DocQA struct {
		// ContextWindowChars bounds how much of a stored document is
		// embedded in the grounding prompt.
		ContextWindowChars int `yaml:"context_window_chars"`
	} `yaml:"docqa"`

	History struct {
		Path string `yaml:"path"` // empty disables result persistence
	} `yaml:"history"`
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error; defaults plus environment variables are used instead.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err == nil {
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}
	if config.Server.Mode == "" {
		config.Server.Mode = "release"
	}
	if config.Models.Dir == "" {
		config.Models.Dir = "./models"
	}
	if config.Gemini.ModelName == "" {
		config.Gemini.ModelName = "gemini-1.5-flash"
	}
	if config.DocQA.ContextWindowChars == 0 {
		config.DocQA.ContextWindowChars = docqa.DefaultContextWindowChars
	}

	// Expand environment variables in the API key, and fall back to the
	// process environment when the file does not set one.
	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)
	if config.Gemini.APIKey == "" {
		config.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return config, nil
}
