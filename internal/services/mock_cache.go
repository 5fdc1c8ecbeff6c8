package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory Cache for testing. Behavior can be
// overridden per call with the func fields; by default it acts as a
// plain map store.
type MockCache struct {
	mu   sync.RWMutex
	data map[string]string

	PingFunc func(ctx context.Context) error
	SetFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetFunc  func(ctx context.Context, key string) (string, error)
	DelFunc  func(ctx context.Context, keys ...string) error

	// Track calls for testing
	SetCalls []SetCall
	GetCalls []string
	DelCalls [][]string
}

type SetCall struct {
	Key        string
	Value      interface{}
	Expiration time.Duration
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)

// NewMockCache creates a new mock cache
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]string),
	}
}

func (m *MockCache) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value, Expiration: expiration})

	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}

	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DelCalls = append(m.DelCalls, keys)

	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MockCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCache) Close() error {
	return nil
}

func (m *MockCache) WaitForConnection(ctx context.Context) error {
	return nil
}
