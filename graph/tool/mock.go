package tool

import (
	"context"
	"sync"
)

// MockTool is a test implementation of Tool.
//
// Use MockTool in tests to verify workflow behavior without executing actual
// tool logic. It provides:
//   - Configurable tool name
//   - Configurable response sequences
//   - Call history tracking
//   - Error injection
//   - Thread-safe operation
//
// Example usage:
//
//	mock := &MockTool{ToolName: "search_web", Responses: []string{"result1, result2"}}
//	output, err := mock.Call(ctx, "test", nil)
//	// Returns "result1, result2"
type MockTool struct {
	// ToolName is the identifier returned by Name().
	ToolName string

	// Responses contains the sequence of text results to return. Each call
	// to Call returns the next response in order; once exhausted, the last
	// response repeats.
	Responses []string

	// Err, if set, is returned by Call instead of a response.
	Err error

	// Calls tracks the history of all Call invocations.
	Calls []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records a single invocation of Call.
type MockToolCall struct {
	Input  string
	Config map[string]interface{}
}

// Name implements the Tool interface.
func (m *MockTool) Name() string {
	return m.ToolName
}

// Call implements the Tool interface.
func (m *MockTool) Call(ctx context.Context, input string, config map[string]interface{}) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: input, Config: config})

	if m.Err != nil {
		return "", m.Err
	}

	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Reset clears the call history and resets the response index.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of times Call has been called.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
