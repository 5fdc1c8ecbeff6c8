package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/minsnailee/llm-detective/pkg/chat"
)

// MockAskClient is a mock implementation of AskClient for testing
type MockAskClient struct {
	mu sync.Mutex

	AskFunc func(ctx context.Context, req chat.AskRequest) (string, error)

	// Track calls for testing
	AskCalls []chat.AskRequest
}

var _ AskClient = (*MockAskClient)(nil)

// NewMockAskClient creates a new mock ask client
func NewMockAskClient() *MockAskClient {
	return &MockAskClient{}
}

// Ask mocks an answer-generation round trip. The default canned answer
// names the suspect so tests can assert attribution.
func (m *MockAskClient) Ask(ctx context.Context, req chat.AskRequest) (string, error) {
	m.mu.Lock()
	m.AskCalls = append(m.AskCalls, req)
	m.mu.Unlock()

	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return fmt.Sprintf("%s has nothing more to say.", req.SuspectName), nil
}

// Calls returns a snapshot of the recorded requests.
func (m *MockAskClient) Calls() []chat.AskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.AskRequest, len(m.AskCalls))
	copy(out, m.AskCalls)
	return out
}
