package agent

import (
	"context"
	"strings"
	"sync"
)

// MockCall records one Stream invocation against a MockProvider.
type MockCall struct {
	Model    string
	Messages []Message
	Params   Params
}

// MockProvider returns a scripted sequence of responses, chunked into
// word-sized deltas, for use in tests without a live API call.
type MockProvider struct {
	Responses []string
	Err       error

	mu        sync.Mutex
	Calls     []MockCall
	callIndex int
}

func (m *MockProvider) Name() string { return "mock" }

// Stream replays the next scripted response, splitting it on spaces so
// callers can exercise throttling/accumulation logic across multiple chunks.
func (m *MockProvider) Stream(ctx context.Context, model string, messages []Message, params Params, onChunk StreamFunc) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Model: model, Messages: messages, Params: params})
	if m.Err != nil {
		err := m.Err
		m.mu.Unlock()
		return Result{}, err
	}
	var text string
	if len(m.Responses) > 0 {
		idx := m.callIndex
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		} else {
			m.callIndex++
		}
		text = m.Responses[idx]
	}
	m.mu.Unlock()

	if text == "" {
		return Result{}, nil
	}

	words := strings.SplitAfter(text, " ")
	for _, w := range words {
		if w == "" {
			continue
		}
		if onChunk != nil {
			onChunk(w)
		}
	}

	return Result{
		Text:         text,
		InputTokens:  estimateTokens(joinContents(messages)),
		OutputTokens: estimateTokens(text),
	}, nil
}

// CallCount returns how many times Stream has been invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func joinContents(messages []Message) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Content)
	}
	return b.String()
}

func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}
