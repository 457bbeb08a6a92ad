package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/veltrix/workflow-engine/graph/tool"
)

func TestBuildToolConfigKnownKeys(t *testing.T) {
	data := Data{"method": "POST", "url_template": "https://example.com/{input}", "timeout": 30}
	cfg := buildToolConfig(data, "42", "http_request")
	if cfg["method"] != "POST" {
		t.Errorf("method = %v, want POST", cfg["method"])
	}
	if cfg["url"] != "https://example.com/42" {
		t.Errorf("url = %v, want templated url with input substituted", cfg["url"])
	}
}

func TestBuildToolConfigExplicitConfigOverridesNothingUnlisted(t *testing.T) {
	data := Data{"config": map[string]interface{}{"custom_flag": true}}
	cfg := buildToolConfig(data, "", "website_generator")
	if cfg["custom_flag"] != true {
		t.Errorf("expected explicit config map to merge in, got %v", cfg)
	}
}

func TestBuildToolConfigCustomParamsJSON(t *testing.T) {
	data := Data{"customParams": `{"foo": "bar", "n": 3}`}
	cfg := buildToolConfig(data, "", "file_processor")
	if cfg["foo"] != "bar" {
		t.Errorf("expected customParams JSON to merge in, got %v", cfg)
	}
}

func TestBuildToolConfigDatabaseQueryAliasing(t *testing.T) {
	data := Data{"queryTemplate": "SELECT * FROM t WHERE x = {input}"}
	cfg := buildToolConfig(data, "5", "database_tool")
	want := "SELECT * FROM t WHERE x = 5"
	if cfg["query"] != want {
		t.Errorf("query = %v, want %q", cfg["query"], want)
	}
}

func TestBuildToolConfigUnknownToolGetsNoImplicitKeys(t *testing.T) {
	data := Data{"method": "POST"}
	cfg := buildToolConfig(data, "", "not_a_real_tool")
	if len(cfg) != 0 {
		t.Errorf("expected no implicit keys for an unlisted tool, got %v", cfg)
	}
}

func TestHandleToolUnknownToolSentinel(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "T"}}}
	analyzer, _ := NewAnalyzer(wf)
	analysis, _ := analyzer.Analyze()
	engine, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run := &engineRun{engine: engine, wf: wf, nodeIdx: wf.nodeByID(), analysis: analysis, state: newRunState(wf)}

	node := &Node{ID: "T", Type: NodeTool, Data: Data{"tool": "does_not_exist"}}
	result, err := handleTool(context.Background(), run, node, "input")
	if err != nil {
		t.Fatalf("handleTool: %v", err)
	}
	want := "[Tool 'does_not_exist' not found]"
	if result != want {
		t.Fatalf("result = %q, want %q", result, want)
	}
}

func TestHandleToolReturnsToolResultDirectly(t *testing.T) {
	tools := tool.NewRegistry()
	mock := &tool.MockTool{ToolName: "search", Responses: []string{"found it"}}
	tools.Register(mock)

	wf := &Workflow{Nodes: []Node{{ID: "T"}}}
	analyzer, _ := NewAnalyzer(wf)
	analysis, _ := analyzer.Analyze()
	engine, err := New(WithToolRegistry(tools))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run := &engineRun{engine: engine, wf: wf, nodeIdx: wf.nodeByID(), analysis: analysis, state: newRunState(wf)}

	node := &Node{ID: "T", Type: NodeTool, Data: Data{"tool": "search"}}
	result, err := handleTool(context.Background(), run, node, "query text")
	if err != nil {
		t.Fatalf("handleTool: %v", err)
	}
	if result != "found it" {
		t.Fatalf("result = %q, want %q", result, "found it")
	}
	if len(mock.Calls) != 1 || mock.Calls[0].Input != "query text" {
		t.Fatalf("expected the tool to be called with input set, got %#v", mock.Calls)
	}
}

func TestHandleToolPropagatesToolError(t *testing.T) {
	tools := tool.NewRegistry()
	mock := &tool.MockTool{ToolName: "broken", Err: errors.New("tool failed")}
	tools.Register(mock)

	wf := &Workflow{Nodes: []Node{{ID: "T"}}}
	analyzer, _ := NewAnalyzer(wf)
	analysis, _ := analyzer.Analyze()
	engine, _ := New(WithToolRegistry(tools))
	run := &engineRun{engine: engine, wf: wf, nodeIdx: wf.nodeByID(), analysis: analysis, state: newRunState(wf)}

	node := &Node{ID: "T", Type: NodeTool, Data: Data{"tool": "broken"}}
	if _, err := handleTool(context.Background(), run, node, ""); err == nil {
		t.Fatal("expected handleTool to propagate the tool's error")
	}
}
