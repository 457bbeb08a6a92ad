package graph

import (
	"context"
	"encoding/json"
	"strings"
)

// toolConfigKeys enumerates, per tool name, the node-data keys the Tool
// Invoker copies verbatim into the tool's configuration map. Unlisted tool
// names get no implicit keys; data.config and data.customParams still merge
// in regardless.
var toolConfigKeys = map[string][]string{
	"web_search":        {"queryTemplate"},
	"code_executor":     {"language", "timeout", "codeTemplate"},
	"database_tool":     {"dbType", "connectionString", "queryTemplate"},
	"file_processor":    {"operation"},
	"image_tool":        {"operation"},
	"ml_pipeline":       {"operation", "modelType", "targetColumn", "modelName"},
	"website_generator": {},
	"gis_tool": {
		"operation", "analysis_type", "distance", "target_crs", "title", "colormap",
		"column", "how", "band", "layer", "zoom", "mapType", "addMarker", "markerLabel", "coordinates",
	},
	"file_search":      {"source", "mode", "max_results", "roots", "extensions"},
	"email_search":     {"source", "max_results", "imap_host", "imap_port", "imap_user", "imap_password"},
	"project_analyzer": {"max_depth", "max_file_size", "max_files_read"},
	"email_sender":     {"source", "to", "subject", "smtp_host", "smtp_port", "smtp_user", "smtp_password"},
	"web_scraper":      {"operation", "css_selector", "timeout", "user_agent"},
	"file_manager":     {"operation", "base_dir", "destination", "confirm", "content_source"},
	"http_request":     {"method", "url_template", "headers", "body", "auth_type", "auth_token", "timeout"},
	"text_transformer": {"operation", "pattern", "replacement", "separator", "template", "max_length"},
	"notifier":         {"channel", "webhook_url", "bot_token", "chat_id", "method", "headers", "timeout"},
	"json_parser":      {"operation", "path", "filter_field", "filter_value"},
	"telegram_bot":     {"operation", "bot_token", "chat_id", "parse_mode"},
	"whatsapp":         {"operation", "token", "phone_number_id", "recipient", "template_name"},
	"pyarchinit_tool":  {"operation", "db_path", "db_type", "sito", "area", "us", "custom_query"},
	"qgis_project":     {"operation", "project_path", "layer_name"},
}

// templateKeys names, per tool, the configuration key whose value receives
// "{input}" substitution before the tool is called.
var templateKeys = map[string]string{
	"web_search":    "queryTemplate",
	"http_request":  "url_template",
	"database_tool": "queryTemplate",
	"code_executor": "codeTemplate",
}

// buildToolConfig assembles the per-call configuration map for toolName from
// node data, following §4.5's precedence: per-tool known keys, then
// data.config, then JSON-parsed data.customParams, then {input} templating.
func buildToolConfig(data Data, input string, toolName string) map[string]interface{} {
	cfg := make(map[string]interface{})
	for _, key := range toolConfigKeys[toolName] {
		if v, ok := data[key]; ok {
			cfg[key] = v
		}
	}
	if explicit := data.Map("config", "config"); explicit != nil {
		for k, v := range explicit {
			cfg[k] = v
		}
	}
	if raw := data.String("customParams", "custom_params", ""); raw != "" {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			for k, v := range parsed {
				cfg[k] = v
			}
		}
	}

	if tplKey, ok := templateKeys[toolName]; ok {
		if tpl, ok := cfg[tplKey].(string); ok && strings.Contains(tpl, "{input}") {
			cfg[tplKey] = strings.ReplaceAll(tpl, "{input}", input)
		}
	}

	// Adapt the generic per-tool key set to the parameter names the two
	// first-party tool implementations actually read.
	switch toolName {
	case "http_request":
		if url, ok := cfg["url_template"]; ok {
			cfg["url"] = url
		}
	case "database_tool":
		if query, ok := cfg["queryTemplate"]; ok {
			cfg["query"] = query
		}
	}
	return cfg
}

// handleTool implements the Tool Invoker: §4.5.
func handleTool(ctx context.Context, run *engineRun, node *Node, input string) (string, error) {
	toolName := node.Data.String("tool", "tool_name", "")
	if toolName == "" {
		return "[Tool '' not found]", nil
	}

	t, ok := run.engine.cfg.tools.Get(toolName)
	if !ok {
		return "[Tool '" + toolName + "' not found]", nil
	}

	cfg := buildToolConfig(node.Data, input, toolName)

	return t.Call(ctx, input, cfg)
}
