package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// lastDecimalNumber extracts the last decimal number appearing in s (used by
// score_threshold, switch-score, and loop score-exit evaluation).
var decimalNumberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

func lastDecimalNumber(s string) (float64, bool) {
	matches := decimalNumberRe.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(matches[len(matches)-1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func compareScore(value, threshold float64, op string) bool {
	switch op {
	case "gt":
		return value > threshold
	case "lte":
		return value <= threshold
	case "lt":
		return value < threshold
	case "eq":
		return value == threshold
	default: // gte
		return value >= threshold
	}
}

// evalCondition implements the §4.6 condition predicate table for
// handleCondition. The Loop Driver evaluates its exit conditions separately,
// in loopShouldExit.
func evalCondition(kind, value, op string, input string) bool {
	switch kind {
	case "contains":
		return strings.Contains(strings.ToLower(input), strings.ToLower(value))
	case "not_contains":
		return !strings.Contains(strings.ToLower(input), strings.ToLower(value))
	case "score_threshold":
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			threshold = 7.0
		}
		n, ok := lastDecimalNumber(input)
		if !ok {
			return false
		}
		return compareScore(n, threshold, op)
	case "keyword":
		window := input
		if len(window) > 500 {
			window = window[:500]
		}
		return strings.Contains(strings.ToUpper(window), strings.ToUpper(value))
	case "regex":
		re, err := regexp.Compile(value)
		if err != nil {
			return false
		}
		return re.MatchString(input)
	case "length_above":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return len(input) > n
	case "length_below":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return len(input) < n
	default:
		return true
	}
}

// handleCondition implements the condition node: §4.6.
func handleCondition(_ context.Context, run *engineRun, node *Node, input string) (string, error) {
	kind := node.Data.String("conditionType", "condition_type", "")
	value := node.Data.String("conditionValue", "condition_value", "7.0")
	op := node.Data.String("operator", "operator", "gte")

	taken := evalCondition(kind, value, op, input)

	blockLabel := "true"
	if taken {
		blockLabel = "false"
	}
	run.blockEdgesWithLabel(node, blockLabel)
	return input, nil
}

// blockEdgesWithLabel blocks every outgoing edge of node whose label equals
// label.
func (run *engineRun) blockEdgesWithLabel(node *Node, label string) {
	var ids []string
	for _, e := range run.analysis.Outgoing[node.ID] {
		if e.Label == label {
			ids = append(ids, e.ID)
		}
	}
	run.state.blockEdges(ids...)
}

// handleSwitch implements the switch node: §4.6. The chosen edge's label
// stays unblocked; every other non-matching, non-default edge is blocked. If
// nothing matches and there is no "default"/unlabeled edge to fall back to,
// nothing is blocked at all — the default path is taken and every edge runs.
func handleSwitch(_ context.Context, run *engineRun, node *Node, input string) (string, error) {
	switchType := node.Data.String("switchType", "switch_type", "keyword")
	edges := run.analysis.Outgoing[node.ID]

	matchedLabel := ""
	hasDefault := false
	for _, e := range edges {
		if e.Label == "" || e.Label == "default" {
			hasDefault = true
			continue
		}
		if switchMatches(switchType, e.Label, input) {
			matchedLabel = e.Label
			break
		}
	}
	if matchedLabel == "" {
		if !hasDefault {
			return input, nil
		}
		matchedLabel = "default"
	}

	var toBlock []string
	for _, e := range edges {
		label := e.Label
		if label == "" {
			label = "default"
		}
		if label != matchedLabel {
			toBlock = append(toBlock, e.ID)
		}
	}
	run.state.blockEdges(toBlock...)
	return input, nil
}

func switchMatches(switchType, label, input string) bool {
	switch switchType {
	case "regex":
		re, err := regexp.Compile("(?i)" + label)
		if err != nil {
			return false
		}
		return re.MatchString(input)
	case "score":
		threshold, err := strconv.ParseFloat(label, 64)
		if err != nil {
			return false
		}
		n, ok := lastDecimalNumber(input)
		if !ok {
			return false
		}
		return n >= threshold
	default: // keyword
		return strings.Contains(strings.ToLower(input), strings.ToLower(label))
	}
}

// validatorVerdict is the tolerant JSON shape a validator agent is asked to
// return.
type validatorVerdict struct {
	Valid  bool    `json:"valid"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

var jsonObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// parseValidatorVerdict tolerantly extracts the first JSON object embedded in
// text. Parse failures default to invalid, with a reason naming the failure
// (no JSON object found, or the JSON decode error).
func parseValidatorVerdict(text string) validatorVerdict {
	match := jsonObjectRe.FindString(text)
	if match == "" {
		return validatorVerdict{Valid: false, Reason: "no JSON object found in validator response"}
	}
	var v validatorVerdict
	if err := json.Unmarshal([]byte(match), &v); err != nil {
		return validatorVerdict{Valid: false, Reason: "failed to parse validator response: " + err.Error()}
	}
	return v
}

// handleValidator implements the validator node: §4.6. It invokes an agent
// with a strict JSON-returning system prompt, blocks the pass/fail edge
// accordingly, and appends a human-readable report to the input.
func handleValidator(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	validationPrompt := node.Data.String("validationPrompt", "validation_prompt", "Validate the following content.")
	strictness := node.Data.Int("strictness", "strictness", 5)

	providerName := node.Data.String("agentProvider", "agent_provider", "mock")
	provider, ok := run.engine.cfg.agents.Get(providerName)
	if !ok {
		return "", errProviderNotFound(providerName)
	}
	model := node.Data.String("model", "model", "")

	systemPrompt := "You are a strict validator. " + validationPrompt +
		" Strictness level: " + strconv.Itoa(strictness) + "/10. " +
		`Respond with ONLY a JSON object of the form {"valid": bool, "reason": string, "score": number 0-10}.`

	messages := buildMessages(systemPrompt, input)
	result, err := streamAgent(ctx, run, node.ID, provider, model, messages, agentParamsFromData(node.Data))
	if err != nil {
		return "", err
	}
	run.recordUsage(model, providerName, node.ID, result)

	verdict := parseValidatorVerdict(result.Text)

	blockLabel := "pass"
	if verdict.Valid {
		blockLabel = "fail"
	}
	run.blockEdgesWithLabel(node, blockLabel)

	report := "\n\n[Validation: valid=" + strconv.FormatBool(verdict.Valid) +
		" score=" + strconv.FormatFloat(verdict.Score, 'f', -1, 64) +
		" reason=" + verdict.Reason + "]"
	return input + report, nil
}

func errProviderNotFound(name string) error {
	return fmt.Errorf("agent: provider %q not registered", name)
}
