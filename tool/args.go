package tool

import (
	"encoding/json"
	"fmt"
	"strings"
)

func queryParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

// parseQuery accepts {"query": "..."} or a bare query string.
func parseQuery(input string) (string, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "{") {
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		input = strings.TrimSpace(args.Query)
	}
	if input == "" {
		return "", fmt.Errorf("query is required")
	}
	return input, nil
}

func decodeArgs(input string, v any) error {
	if err := json.Unmarshal([]byte(input), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
