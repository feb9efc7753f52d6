package assistant

import (
	"errors"
	"testing"
)

func TestNewOpenAILLMAppliesDefaults(t *testing.T) {
	llm, err := NewOpenAILLM(LLMConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAILLM failed: %v", err)
	}

	defaults := DefaultLLMConfig()
	if llm.config.Model != defaults.Model {
		t.Errorf("expected default model %q, got %q", defaults.Model, llm.config.Model)
	}
	if llm.config.Temperature != defaults.Temperature {
		t.Errorf("expected default temperature %v, got %v", defaults.Temperature, llm.config.Temperature)
	}
	if llm.config.MaxTokens != defaults.MaxTokens {
		t.Errorf("expected default max tokens %d, got %d", defaults.MaxTokens, llm.config.MaxTokens)
	}
}

func TestNewOpenAILLMKeepsExplicitConfig(t *testing.T) {
	llm, err := NewOpenAILLM(LLMConfig{
		APIKey:      "test-key",
		Model:       "gpt-4o",
		Temperature: 0.9,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("NewOpenAILLM failed: %v", err)
	}
	if llm.config.Model != "gpt-4o" || llm.config.Temperature != 0.9 || llm.config.MaxTokens != 500 {
		t.Errorf("explicit config must not be overwritten, got %+v", llm.config)
	}
}

func TestNewOpenAILLMMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAILLM(LLMConfig{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig without an API key, got %v", err)
	}
}
