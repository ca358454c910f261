package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embedding struct {
		Provider    string  `yaml:"provider"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Dimension   int     `yaml:"dimension"`
		Concurrency int     `yaml:"concurrency"`
		RateLimit   float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`

	Chunking struct {
		MaxTokens      int `yaml:"max_tokens"`
		OverlapTokens  int `yaml:"overlap_tokens"`
		MinChunkTokens int `yaml:"min_chunk_tokens"`
		MinChunkLength int `yaml:"min_chunk_length"`
	} `yaml:"chunking"`

	Preprocessing struct {
		MinSemanticDensity     float64 `yaml:"min_semantic_density"`
		MaxNoiseRatio          float64 `yaml:"max_noise_ratio"`
		EnableQualityFiltering *bool   `yaml:"enable_quality_filtering"`
	} `yaml:"preprocessing"`

	Answer struct {
		MaxContextChunks        int     `yaml:"max_context_chunks"`
		MinRelevanceThreshold   float64 `yaml:"min_relevance_threshold"`
		EnableAdvancedFiltering *bool   `yaml:"enable_advanced_filtering"`
		FallbackToBasic         *bool   `yaml:"fallback_to_basic"`
	} `yaml:"answer"`

	Retrieval struct {
		DefaultTopK int `yaml:"default_top_k"`
		MaxTopK     int `yaml:"max_top_k"`
	} `yaml:"retrieval"`

	Index struct {
		Backend   string `yaml:"backend"` // "flat" or "pgvector"
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
	} `yaml:"index"`

	Downloader struct {
		Dir            string `yaml:"dir"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"downloader"`

	Server struct {
		Port      string `yaml:"port"`
		Streaming bool   `yaml:"streaming"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docqa/config.yaml"),
			"/etc/docqa/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 500
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedding.Provider == "" {
		config.Embedding.Provider = config.LLM.Provider
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "nomic-embed-text:latest"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = config.LLM.BaseURL
	}
	if config.Embedding.Dimension == 0 {
		config.Embedding.Dimension = 768
	}
	if config.Embedding.Concurrency == 0 {
		config.Embedding.Concurrency = 8
	}
	if config.Embedding.RateLimit == 0 {
		config.Embedding.RateLimit = 10.0
	}

	if config.Chunking.MaxTokens == 0 {
		config.Chunking.MaxTokens = 400
	}
	if config.Chunking.OverlapTokens == 0 {
		config.Chunking.OverlapTokens = 50
	}
	if config.Chunking.MinChunkTokens == 0 {
		config.Chunking.MinChunkTokens = 20
	}
	if config.Chunking.MinChunkLength == 0 {
		config.Chunking.MinChunkLength = 30
	}

	if config.Preprocessing.MinSemanticDensity == 0 {
		config.Preprocessing.MinSemanticDensity = 0.2
	}
	if config.Preprocessing.MaxNoiseRatio == 0 {
		config.Preprocessing.MaxNoiseRatio = 0.7
	}
	if config.Preprocessing.EnableQualityFiltering == nil {
		config.Preprocessing.EnableQualityFiltering = boolPtr(true)
	}

	if config.Answer.MaxContextChunks == 0 {
		config.Answer.MaxContextChunks = 3
	}
	if config.Answer.MinRelevanceThreshold == 0 {
		config.Answer.MinRelevanceThreshold = 0.1
	}
	if config.Answer.EnableAdvancedFiltering == nil {
		config.Answer.EnableAdvancedFiltering = boolPtr(true)
	}
	if config.Answer.FallbackToBasic == nil {
		config.Answer.FallbackToBasic = boolPtr(true)
	}

	if config.Retrieval.DefaultTopK == 0 {
		config.Retrieval.DefaultTopK = 5
	}
	if config.Retrieval.MaxTopK == 0 {
		config.Retrieval.MaxTopK = 10
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "flat"
	}
	if config.Index.TableName == "" {
		config.Index.TableName = "chunks"
	}

	if config.Downloader.Dir == "" {
		config.Downloader.Dir = filepath.Join(os.TempDir(), "docqa-downloads")
	}
	if config.Downloader.TimeoutSeconds == 0 {
		config.Downloader.TimeoutSeconds = 30
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.URL = dbURL
	}
	if key := os.Getenv("OPENAI_BASE_URL"); key != "" && config.LLM.Provider == "openai" {
		config.LLM.BaseURL = key
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}

func boolPtr(b bool) *bool { return &b }
