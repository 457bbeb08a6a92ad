package graph

import "testing"

func TestDecodeWorkflowRoundTrip(t *testing.T) {
	raw := map[string]interface{}{
		"nodes": []interface{}{
			map[string]interface{}{"id": "A", "type": "input", "data": map[string]interface{}{"defaultValue": "x"}},
			map[string]interface{}{"id": "B", "type": "output"},
		},
		"edges": []interface{}{
			map[string]interface{}{"id": "e1", "source": "A", "target": "B", "label": ""},
		},
	}
	wf, err := decodeWorkflow(raw)
	if err != nil {
		t.Fatalf("decodeWorkflow: %v", err)
	}
	if len(wf.Nodes) != 2 || len(wf.Edges) != 1 {
		t.Fatalf("wf = %+v", wf)
	}
	if wf.Nodes[0].Type != NodeInput || wf.Nodes[0].Data.String("defaultValue", "default_value", "") != "x" {
		t.Fatalf("node A decoded incorrectly: %+v", wf.Nodes[0])
	}
	if wf.Edges[0].Source != "A" || wf.Edges[0].Target != "B" {
		t.Fatalf("edge decoded incorrectly: %+v", wf.Edges[0])
	}
}

func TestDecodeWorkflowMissingNodesErrors(t *testing.T) {
	raw := map[string]interface{}{"edges": []interface{}{}}
	if _, err := decodeWorkflow(raw); err == nil {
		t.Fatal("expected an error when nodes is missing")
	}
}

func TestDecodeWorkflowUnknownNodeTypeErrors(t *testing.T) {
	raw := map[string]interface{}{
		"nodes": []interface{}{map[string]interface{}{"id": "A", "type": "not_a_real_type"}},
		"edges": []interface{}{},
	}
	if _, err := decodeWorkflow(raw); err == nil {
		t.Fatal("expected an error for an unrecognized node type")
	}
}

func TestDecodeWorkflowNonObjectNodeEntryErrors(t *testing.T) {
	raw := map[string]interface{}{
		"nodes": []interface{}{"not-an-object"},
		"edges": []interface{}{},
	}
	if _, err := decodeWorkflow(raw); err == nil {
		t.Fatal("expected an error for a non-object node entry")
	}
}
