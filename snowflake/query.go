// query.go executes arbitrary SQL from analyst replies.
//
// Results are returned fully stringified: the TUI only ever displays them
// (charts re-parse numeric columns at render time). Errors are returned,
// never logged or printed.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"snowchat/applog"
)

// QueryResult holds the output of an arbitrary SQL query.
type QueryResult struct {
	Columns  []string
	Rows     [][]string
	RowCount int
}

// Execute runs a SQL statement from an analyst reply and collects the
// result set.
func (s *Session) Execute(ctx context.Context, query string) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return nil, err
	}

	applog.Event(applog.CategoryQuery, "%d row(s) in %s", result.RowCount, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// collectRows drains a result set into columns plus stringified cells.
func collectRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
		result.RowCount++
	}
	return result, rows.Err()
}

// formatValue renders one cell for display.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}
