package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error

	Calls      int
	LastPrompt string
	LastSchema *Schema
}

func (m *MockClient) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	m.LastSchema = schema
	return m.Response, m.Err
}
