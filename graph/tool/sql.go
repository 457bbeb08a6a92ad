package tool

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLTool is the database_tool: a read-only, row-bounded query path against
// a sqlite database. It rejects anything but a single SELECT statement so a
// misbehaving agent cannot mutate the underlying database through a tool
// call.
type SQLTool struct {
	db       *sql.DB
	maxRows  int
}

// NewSQLTool opens dsn (a sqlite data source) and returns a tool bounding
// result sets to maxRows (0 defaults to 100).
func NewSQLTool(dsn string, maxRows int) (*SQLTool, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database_tool: open: %w", err)
	}
	if maxRows <= 0 {
		maxRows = 100
	}
	return &SQLTool{db: db, maxRows: maxRows}, nil
}

func (t *SQLTool) Name() string { return "database_tool" }

// Call executes config["query"] (falling back to input when config carries
// none), which must be a single SELECT statement. Results are capped at
// maxRows and returned as a JSON-formatted text result; a row_count equal to
// maxRows signals truncation.
func (t *SQLTool) Call(ctx context.Context, input string, config map[string]interface{}) (string, error) {
	query, _ := config["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		query = strings.TrimSpace(input)
	}
	if query == "" {
		return "", fmt.Errorf("database_tool: query parameter required")
	}
	if !strings.EqualFold(strings.Fields(query)[0], "select") {
		return "", fmt.Errorf("database_tool: only SELECT statements are permitted")
	}

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("database_tool: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("database_tool: columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() && len(results) < t.maxRows {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("database_tool: scan: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("database_tool: rows: %w", err)
	}

	encoded, err := json.Marshal(map[string]interface{}{
		"rows":      results,
		"row_count": len(results),
		"truncated": len(results) == t.maxRows,
	})
	if err != nil {
		return "", fmt.Errorf("database_tool: encode result: %w", err)
	}
	return string(encoded), nil
}

// Close releases the underlying database handle.
func (t *SQLTool) Close() error { return t.db.Close() }
