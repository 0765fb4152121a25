package handlers

import (
	"context"
	"sync"

	"memopilot/internal/models"
	"memopilot/internal/services"
)

// mockMemoryAPI counts calls and serves canned results for handler tests
type mockMemoryAPI struct {
	mu          sync.Mutex
	searchCalls int
	getAllCalls int
	getCalls    int
	deleteCalls int

	getErr       error
	getAllResult models.MemoryResult
	records      map[string]models.MemoryResult
}

func newMockMemoryAPI() *mockMemoryAPI {
	return &mockMemoryAPI{records: make(map[string]models.MemoryResult)}
}

func (m *mockMemoryAPI) Search(ctx context.Context, query string, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	return models.MemoryResult{"results": []any{}}, nil
}

func (m *mockMemoryAPI) GetAll(ctx context.Context, filters map[string]any, options map[string]any) (models.MemoryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllCalls++
	if m.getAllResult != nil {
		return m.getAllResult, nil
	}
	return models.MemoryResult{"results": []any{}, "count": 0}, nil
}

func (m *mockMemoryAPI) Get(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if record, ok := m.records[memoryID]; ok {
		return record, nil
	}
	return models.MemoryResult{}, nil
}

func (m *mockMemoryAPI) Add(ctx context.Context, messages []map[string]any, userID string, options map[string]any) (models.MemoryResult, error) {
	return models.MemoryResult{"status": "added"}, nil
}

func (m *mockMemoryAPI) Delete(ctx context.Context, memoryID string, options map[string]any) (models.MemoryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	return models.MemoryResult{"status": "deleted"}, nil
}

func (m *mockMemoryAPI) counts() (search, getAll, get, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls, m.getAllCalls, m.getCalls, m.deleteCalls
}

var _ services.MemoryAPI = (*mockMemoryAPI)(nil)
