package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string                `yaml:"type"`
	BatchSize   int                   `yaml:"batch_size"`
	Parallelism int                   `yaml:"parallelism"`
	OpenAI      *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// RetrievalConfig configures nearest-neighbor lookup.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// HistoryConfig bounds the conversation window compressed for follow-ups.
type HistoryConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	MaxPairs  int `yaml:"max_pairs"`
}

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OpenAIChatConfig configures the OpenAI-compatible chat client.
type OpenAIChatConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// LLMConfig selects and configures the completion service.
type LLMConfig struct {
	Type        string            `yaml:"type"`
	TimeoutSecs int               `yaml:"timeout_secs"`
	MaxRetries  int               `yaml:"max_retries"`
	Gemini      *GeminiConfig     `yaml:"gemini,omitempty"`
	OpenAI      *OpenAIChatConfig `yaml:"openai,omitempty"`
}

// PromptConfig overrides the analyst instruction of first-turn prompts.
type PromptConfig struct {
	Instruction string `yaml:"instruction,omitempty"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// WatchConfig configures rebuilding the index when documents change.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	History    HistoryConfig    `yaml:"history"`
	LLM        LLMConfig        `yaml:"llm"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
	Watch      WatchConfig      `yaml:"watch"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragscholar/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragscholar/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Embedder.Type {
	case "tfidf", "openai":
	default:
		errs = append(errs, fmt.Errorf("embedder.type: unknown %q", c.Embedder.Type))
	}
	switch c.Chunker.Type {
	case "word":
		if c.Chunker.ChunkSize <= 0 {
			errs = append(errs, errors.New("chunker.chunk_size must be positive"))
		}
	case "sentence":
		if c.Chunker.OverlapSentences < 0 || c.Chunker.OverlapSentences >= c.Chunker.SentencesPerChunk {
			errs = append(errs, errors.New("chunker.overlap_sentences must be in [0, sentences_per_chunk)"))
		}
	default:
		errs = append(errs, fmt.Errorf("chunker.type: unknown %q", c.Chunker.Type))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, errors.New("retrieval.top_k must be at least 1"))
	}
	if c.History.MaxTokens < 1 || c.History.MaxPairs < 1 {
		errs = append(errs, errors.New("history.max_tokens and history.max_pairs must be positive"))
	}
	switch c.LLM.Type {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("llm.type: unknown %q", c.LLM.Type))
	}
	if c.LLM.MaxRetries < 0 || c.LLM.TimeoutSecs < 0 {
		errs = append(errs, errors.New("llm.max_retries and llm.timeout_secs must not be negative"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragscholar", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:   EmbedderConfig{Type: "tfidf"},
		Chunker:    ChunkerConfig{Type: "word"},
		LLM:        LLMConfig{Type: "gemini"},
		Summarizer: SummarizerConfig{Type: "frequency"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.Parallelism == 0 {
		cfg.Embedder.Parallelism = 4
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "word"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.History.MaxTokens == 0 {
		cfg.History.MaxTokens = 1500
	}
	if cfg.History.MaxPairs == 0 {
		cfg.History.MaxPairs = 5
	}

	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "gemini"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	switch cfg.LLM.Type {
	case "gemini":
		if cfg.LLM.Gemini == nil {
			cfg.LLM.Gemini = &GeminiConfig{}
		}
		if cfg.LLM.Gemini.BaseURL == "" {
			cfg.LLM.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		if cfg.LLM.Gemini.APIKeyEnv == "" {
			cfg.LLM.Gemini.APIKeyEnv = "API_KEY"
		}
		if cfg.LLM.Gemini.Model == "" {
			cfg.LLM.Gemini.Model = "gemini-2.0-flash"
		}
	case "openai":
		if cfg.LLM.OpenAI == nil {
			cfg.LLM.OpenAI = &OpenAIChatConfig{}
		}
		if cfg.LLM.OpenAI.APIKeyEnv == "" {
			cfg.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.LLM.OpenAI.Model == "" {
			cfg.LLM.OpenAI.Model = "gpt-4o-mini"
		}
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 500
	}
}
