package gateway_test

import (
	"context"
	"sync"

	"github.com/BerylCAtieno/state-analysis-gateway/internal/models"
)

type mockGenerator struct {
	mu         sync.Mutex
	prompts    []models.Prompt
	generateFn func(ctx context.Context, prompt models.Prompt) (string, error)
}

func (m *mockGenerator) Generate(ctx context.Context, prompt models.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "## Prós\n* Mercado aquecido", nil
}

func (m *mockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockGenerator) LastPrompt() models.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return models.Prompt{}
	}
	return m.prompts[len(m.prompts)-1]
}
