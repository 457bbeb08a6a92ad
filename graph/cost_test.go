package graph

import "testing"

func TestRecordLLMCallComputesCostFromPricingTable(t *testing.T) {
	ct := NewCostTracker("r1", "USD")
	ct.RecordLLMCall("gpt-4o-mini", 1_000_000, 1_000_000, "N1")

	want := 0.15 + 0.60
	got := ct.GetTotalCost()
	if got != want {
		t.Fatalf("GetTotalCost() = %v, want %v", got, want)
	}
	if len(ct.Calls) != 1 {
		t.Fatalf("expected 1 recorded call, got %d", len(ct.Calls))
	}
	if ct.Calls[0].NodeID != "N1" {
		t.Fatalf("NodeID = %q, want N1", ct.Calls[0].NodeID)
	}
}

func TestRecordLLMCallUnknownModelIsZeroCost(t *testing.T) {
	ct := NewCostTracker("r1", "USD")
	ct.RecordLLMCall("some-unlisted-model", 1000, 1000, "N1")
	if ct.GetTotalCost() != 0 {
		t.Fatalf("GetTotalCost() = %v, want 0 for an unknown model", ct.GetTotalCost())
	}
}

func TestCostByModelAccumulatesAcrossCalls(t *testing.T) {
	ct := NewCostTracker("r1", "USD")
	ct.RecordLLMCall("gpt-4o-mini", 1_000_000, 0, "N1")
	ct.RecordLLMCall("gpt-4o-mini", 1_000_000, 0, "N2")

	byModel := ct.GetCostByModel()
	want := 0.15 * 2
	if byModel["gpt-4o-mini"] != want {
		t.Fatalf("GetCostByModel()[gpt-4o-mini] = %v, want %v", byModel["gpt-4o-mini"], want)
	}
}

func TestGetCostByModelReturnsACopy(t *testing.T) {
	ct := NewCostTracker("r1", "USD")
	ct.RecordLLMCall("gpt-4o-mini", 1_000_000, 0, "N1")

	byModel := ct.GetCostByModel()
	byModel["gpt-4o-mini"] = 999

	if ct.GetCostByModel()["gpt-4o-mini"] == 999 {
		t.Fatal("expected GetCostByModel to return an independent copy")
	}
}

func TestNilCostTrackerMethodsAreSafe(t *testing.T) {
	var ct *CostTracker
	ct.RecordLLMCall("gpt-4o-mini", 100, 100, "N1")
	if got := ct.GetTotalCost(); got != 0 {
		t.Fatalf("GetTotalCost() on nil tracker = %v, want 0", got)
	}
	if got := ct.GetCostByModel(); got != nil {
		t.Fatalf("GetCostByModel() on nil tracker = %v, want nil", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcdefgh", 2},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.text); got != c.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
