package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/veltrix/workflow-engine/graph/agent"
)

func TestChunkWindowsShortTextSingleWindow(t *testing.T) {
	windows := chunkWindows("short text", 2000, 200)
	if len(windows) != 1 || windows[0] != "short text" {
		t.Fatalf("windows = %v, want a single window with the whole text", windows)
	}
}

func TestChunkWindowsSplitsWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 25)
	windows := chunkWindows(text, 10, 2)
	if len(windows) < 3 {
		t.Fatalf("expected at least 3 windows for 25 chars at size 10, got %d: %v", len(windows), windows)
	}
	for _, w := range windows {
		if len(w) > 10 {
			t.Fatalf("window %q exceeds chunkSize 10", w)
		}
	}
	last := windows[len(windows)-1]
	if !strings.HasSuffix(text, last) {
		t.Fatalf("final window %q should end exactly at the text's end", last)
	}
}

func TestHandleChunkerStreamsPerWindow(t *testing.T) {
	agents := agent.NewRegistry()
	provider := &agent.MockProvider{Responses: []string{"summary1", "summary2"}}
	agents.Register("mock", provider)
	engine, err := New(WithAgentRegistry(agents))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wf := &Workflow{Nodes: []Node{{ID: "CH"}}}
	analyzer, _ := NewAnalyzer(wf)
	analysis, _ := analyzer.Analyze()
	run := &engineRun{engine: engine, workflowID: "t", wf: wf, nodeIdx: wf.nodeByID(), analysis: analysis, state: newRunState(wf)}

	node := &Node{ID: "CH", Data: Data{
		"chunkSize": 10, "overlap": 2, "agentProvider": "mock", "separator": "|",
	}}
	text := strings.Repeat("b", 18)
	result, err := handleChunker(context.Background(), run, node, text)
	if err != nil {
		t.Fatalf("handleChunker: %v", err)
	}
	parts := strings.Split(result, "|")
	if len(parts) != 2 {
		t.Fatalf("expected 2 joined chunk results, got %d: %q", len(parts), result)
	}
	if parts[0] != "summary1" || parts[1] != "summary2" {
		t.Fatalf("parts = %v, want [summary1 summary2]", parts)
	}
}

func TestHandleChunkerUnknownProvider(t *testing.T) {
	engine, _ := New()
	wf := &Workflow{Nodes: []Node{{ID: "CH"}}}
	analyzer, _ := NewAnalyzer(wf)
	analysis, _ := analyzer.Analyze()
	run := &engineRun{engine: engine, wf: wf, nodeIdx: wf.nodeByID(), analysis: analysis, state: newRunState(wf)}

	node := &Node{ID: "CH", Data: Data{"agentProvider": "missing"}}
	if _, err := handleChunker(context.Background(), run, node, "text"); err == nil {
		t.Fatal("expected an error for an unregistered agent provider")
	}
}
