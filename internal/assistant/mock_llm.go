package assistant

import (
	"context"
	"strings"
)

// MockLLM is a deterministic LLM implementation for testing.
// It returns predictable responses based on prompt content.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is generated from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// LastPrompt stores the most recent prompt passed to Generate.
	LastPrompt string
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.LastPrompt = prompt

	if m.Error != nil {
		return "", m.Error
	}

	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(prompt), nil
}

// generateMockResponse creates a predictable answer from the prompt,
// echoing the pages it saw so citation plumbing is testable.
func generateMockResponse(prompt string) string {
	var b strings.Builder
	b.WriteString("Based on your study materials, here is what the context covers. ")

	var pages []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[PAGE ") && strings.HasSuffix(line, "]") {
			pages = append(pages, strings.TrimSuffix(strings.TrimPrefix(line, "[PAGE "), "]"))
		}
	}
	if len(pages) > 0 {
		b.WriteString("References: Pages ")
		b.WriteString(strings.Join(pages, ", "))
		b.WriteString(".")
	} else {
		b.WriteString("I couldn't find information about this in your study materials.")
	}

	return b.String()
}
