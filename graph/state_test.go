package graph

import (
	"sync"
	"testing"
	"time"
)

func TestRunStateResultsAndStatus(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}, {ID: "B"}}}
	rs := newRunState(wf)

	if rs.statuses["A"] != StatusWaiting {
		t.Fatalf("expected initial status waiting, got %s", rs.statuses["A"])
	}

	rs.setStatus("A", StatusRunning)
	rs.setProgress("A", "chunk 1/3")
	_, statuses, _, _ := rs.snapshot(false)
	if statuses["A"] != "chunk 1/3" {
		t.Fatalf("expected progress text to surface in snapshot while running, got %q", statuses["A"])
	}

	rs.setStatus("A", StatusDone)
	rs.setResult("A", "hello")
	_, statuses, results, _ := rs.snapshot(false)
	if statuses["A"] != string(StatusDone) {
		t.Fatalf("expected status done after clearing progress, got %q", statuses["A"])
	}
	if results["A"] != "hello" {
		t.Fatalf("expected result hello, got %q", results["A"])
	}
}

func TestRunStateSnapshotTruncation(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	rs.setResult("A", string(long))

	_, _, results, _ := rs.snapshot(true)
	if len(results["A"]) != 500 {
		t.Fatalf("expected truncated result to be 500 chars, got %d", len(results["A"]))
	}

	_, _, results, _ = rs.snapshot(false)
	if len(results["A"]) != 600 {
		t.Fatalf("expected untruncated result to be 600 chars, got %d", len(results["A"]))
	}
}

func TestRunStateBlockEdgesAndSkip(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)

	if rs.isBlocked("e1") {
		t.Fatal("edge should not start blocked")
	}
	rs.blockEdges("e1", "e2")
	if !rs.isBlocked("e1") || !rs.isBlocked("e2") {
		t.Fatal("expected both edges blocked")
	}

	if rs.isSkipped("A") {
		t.Fatal("node should not start skipped")
	}
	rs.addSkip("A")
	if !rs.isSkipped("A") {
		t.Fatal("expected node A skipped")
	}
}

func TestRunStateConcurrentSetVariable(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rs.setVariable("x", "v")
		}(i)
	}
	wg.Wait()

	v, ok := rs.variable("x")
	if !ok || v != "v" {
		t.Fatalf("expected variable x to be set to v, got %q ok=%v", v, ok)
	}
}

func TestRunStateThrottleStream(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)

	if !rs.throttleStream("A", false) {
		t.Fatal("first emit should always be allowed")
	}
	if rs.throttleStream("A", false) {
		t.Fatal("immediate second emit should be throttled")
	}
	if !rs.throttleStream("A", true) {
		t.Fatal("reset emit (final chunk) must always be allowed")
	}

	time.Sleep(90 * time.Millisecond)
	if !rs.throttleStream("A", false) {
		t.Fatal("emit after throttle window elapses should be allowed")
	}
}

func TestSubstituteVariables(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)
	rs.setVariable("name", "world")

	got := rs.substituteVariables("hello {var:name}, bye {var:missing}")
	want := "hello world, bye {var:missing}"
	if got != want {
		t.Fatalf("substituteVariables() = %q, want %q", got, want)
	}
}

func TestSubstituteVariablesNoPlaceholders(t *testing.T) {
	wf := &Workflow{Nodes: []Node{{ID: "A"}}}
	rs := newRunState(wf)
	text := "plain text with no markers"
	if got := rs.substituteVariables(text); got != text {
		t.Fatalf("substituteVariables() = %q, want unchanged %q", got, text)
	}
}
