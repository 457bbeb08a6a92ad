package graph

import "fmt"

// decodeWorkflow converts a meta_agent node's workflowDefinition value
// (decoded from JSON as generic map/slice values) into a Workflow. It
// mirrors the shape produced by encoding a Workflow to its external JSON
// form: {"nodes": [...], "edges": [...]}.
func decodeWorkflow(raw map[string]interface{}) (*Workflow, error) {
	wf := &Workflow{}

	nodesRaw, ok := raw["nodes"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("workflowDefinition.nodes missing or not an array")
	}
	for _, nr := range nodesRaw {
		nm, ok := nr.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("workflowDefinition.nodes contains a non-object entry")
		}
		node, err := decodeNode(nm)
		if err != nil {
			return nil, err
		}
		wf.Nodes = append(wf.Nodes, node)
	}

	edgesRaw, ok := raw["edges"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("workflowDefinition.edges missing or not an array")
	}
	for _, er := range edgesRaw {
		em, ok := er.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("workflowDefinition.edges contains a non-object entry")
		}
		wf.Edges = append(wf.Edges, Edge{
			ID:     stringField(em, "id"),
			Source: stringField(em, "source"),
			Target: stringField(em, "target"),
			Label:  stringField(em, "label"),
		})
	}

	return wf, nil
}

func decodeNode(m map[string]interface{}) (Node, error) {
	id := stringField(m, "id")
	typ := NodeType(stringField(m, "type"))
	if !typ.valid() {
		return Node{}, fmt.Errorf("node %s has unknown type %q", id, typ)
	}
	data, _ := m["data"].(map[string]interface{})
	return Node{ID: id, Type: typ, Data: Data(data)}, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
