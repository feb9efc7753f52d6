// Package config loads the study assistant's YAML configuration:
// retrieval tunables, embedding model selection, storage backends, and
// quiz defaults. Missing files fall back to defaults so the CLI works
// out of the box.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/khanalasmit/rag-study-assistant/internal/rag"
)

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// RetrievalConfig holds the chunking and hybrid retrieval tunables.
type RetrievalConfig struct {
	BreakpointThreshold float64 `yaml:"breakpoint_threshold"`
	ChunkMinUnits       int     `yaml:"chunk_min_units"`
	ChunkMaxChars       int     `yaml:"chunk_max_chars"`
	BM25K1              float64 `yaml:"bm25_k1"`
	BM25B               float64 `yaml:"bm25_b"`
	FusionWeightSparse  float64 `yaml:"fusion_weight_sparse"`
	FusionWeightDense   float64 `yaml:"fusion_weight_dense"`
	OverFetchFactor     int     `yaml:"over_fetch_factor"`
	TopK                int     `yaml:"top_k"`
	Fusion              string  `yaml:"fusion"`
}

// StorageConfig selects the dense index backend and progress database.
type StorageConfig struct {
	DenseBackend string `yaml:"dense_backend"` // "milvus" or "memory"
	ProgressDB   string `yaml:"progress_db"`
}

// QuizConfig holds quiz generation defaults.
type QuizConfig struct {
	DefaultQuestions int    `yaml:"default_questions"`
	MaxQuestions     int    `yaml:"max_questions"`
	DefaultType      string `yaml:"default_type"`
}

// LLMConfig selects the chat model for answer generation.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Storage   StorageConfig   `yaml:"storage"`
	Quiz      QuizConfig      `yaml:"quiz"`
	LLM       LLMConfig       `yaml:"llm"`
}

// RAGConfig converts the retrieval section into the core's Config.
func (c *AppConfig) RAGConfig() rag.Config {
	return rag.Config{
		BreakpointThreshold: c.Retrieval.BreakpointThreshold,
		ChunkMinUnits:       c.Retrieval.ChunkMinUnits,
		ChunkMaxChars:       c.Retrieval.ChunkMaxChars,
		BM25K1:              c.Retrieval.BM25K1,
		BM25B:               c.Retrieval.BM25B,
		FusionWeightSparse:  c.Retrieval.FusionWeightSparse,
		FusionWeightDense:   c.Retrieval.FusionWeightDense,
		OverFetchFactor:     c.Retrieval.OverFetchFactor,
		TopK:                c.Retrieval.TopK,
		Fusion:              c.Retrieval.Fusion,
	}
}

// Load reads a config from a specified path. If the file does not
// exist, returns defaults.
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
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./study.yaml first, then
// ~/.config/study-assistant/config.yaml. If neither exists it returns
// defaults without writing anything.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "study.yaml"
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
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as
// needed.
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

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "study-assistant", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	core := rag.DefaultConfig()
	return &AppConfig{
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Retrieval: RetrievalConfig{
			BreakpointThreshold: core.BreakpointThreshold,
			ChunkMinUnits:       core.ChunkMinUnits,
			ChunkMaxChars:       core.ChunkMaxChars,
			BM25K1:              core.BM25K1,
			BM25B:               core.BM25B,
			FusionWeightSparse:  core.FusionWeightSparse,
			FusionWeightDense:   core.FusionWeightDense,
			OverFetchFactor:     core.OverFetchFactor,
			TopK:                core.TopK,
			Fusion:              core.Fusion,
		},
		Storage: StorageConfig{
			DenseBackend: "memory",
			ProgressDB:   "progress.db",
		},
		Quiz: QuizConfig{
			DefaultQuestions: 5,
			MaxQuestions:     20,
			DefaultType:      "mixed",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   2000,
		},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = def.Embedding.Dimension
	}
	if cfg.Retrieval.BreakpointThreshold == 0 {
		cfg.Retrieval.BreakpointThreshold = def.Retrieval.BreakpointThreshold
	}
	if cfg.Retrieval.ChunkMinUnits == 0 {
		cfg.Retrieval.ChunkMinUnits = def.Retrieval.ChunkMinUnits
	}
	if cfg.Retrieval.ChunkMaxChars == 0 {
		cfg.Retrieval.ChunkMaxChars = def.Retrieval.ChunkMaxChars
	}
	if cfg.Retrieval.BM25K1 == 0 {
		cfg.Retrieval.BM25K1 = def.Retrieval.BM25K1
	}
	if cfg.Retrieval.BM25B == 0 {
		cfg.Retrieval.BM25B = def.Retrieval.BM25B
	}
	if cfg.Retrieval.FusionWeightSparse == 0 && cfg.Retrieval.FusionWeightDense == 0 {
		cfg.Retrieval.FusionWeightSparse = def.Retrieval.FusionWeightSparse
		cfg.Retrieval.FusionWeightDense = def.Retrieval.FusionWeightDense
	}
	if cfg.Retrieval.OverFetchFactor == 0 {
		cfg.Retrieval.OverFetchFactor = def.Retrieval.OverFetchFactor
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.Fusion == "" {
		cfg.Retrieval.Fusion = def.Retrieval.Fusion
	}
	if cfg.Storage.DenseBackend == "" {
		cfg.Storage.DenseBackend = def.Storage.DenseBackend
	}
	if cfg.Storage.ProgressDB == "" {
		cfg.Storage.ProgressDB = def.Storage.ProgressDB
	}
	if cfg.Quiz.DefaultQuestions == 0 {
		cfg.Quiz.DefaultQuestions = def.Quiz.DefaultQuestions
	}
	if cfg.Quiz.MaxQuestions == 0 {
		cfg.Quiz.MaxQuestions = def.Quiz.MaxQuestions
	}
	if cfg.Quiz.DefaultType == "" {
		cfg.Quiz.DefaultType = def.Quiz.DefaultType
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
}
