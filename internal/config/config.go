package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Notes struct {
		Dir        string `yaml:"dir"`        // folder containing study notes
		Collection string `yaml:"collection"` // vector store collection name
	} `yaml:"notes"`
	Store struct {
		Path string `yaml:"path"` // SQLite database path
	} `yaml:"store"`
	AI struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`      // embedding model
		ChatModel string `yaml:"chat_model"` // LLM model for answers and quizzes
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"ai"`
	Chunking struct {
		Size     int    `yaml:"size"`
		Overlap  int    `yaml:"overlap"`
		Strategy string `yaml:"strategy"` // character, recursive, semantic, agentic
	} `yaml:"chunking"`
}

// LoadConfig reads the YAML config, falling back to defaults when the file
// is missing. Values from .env and the process environment take precedence.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := defaultConfig()

	// 2. Load YAML config (optional, defaults cover a missing file)
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("QUIZFORGE_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if provider := os.Getenv("QUIZFORGE_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Notes.Dir = "notes"
	cfg.Notes.Collection = "study_notes"
	cfg.Store.Path = "quizforge.db"
	cfg.AI.Provider = "openai"
	cfg.AI.Model = "text-embedding-3-small"
	cfg.AI.ChatModel = "gpt-4o-mini"
	cfg.Chunking.Size = 500
	cfg.Chunking.Overlap = 50
	cfg.Chunking.Strategy = "recursive"
	return cfg
}
