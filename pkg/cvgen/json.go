package cvgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON decodes the JSON object carried in a model response.
// Models usually honor the fenced-output instruction, but extraction also
// tolerates unfenced answers and leading or trailing prose.
func extractJSON(text string) (map[string]any, error) {
	candidate := text

	if fenced, ok := cutFence(text, "```json"); ok {
		candidate = fenced
	} else if fenced, ok := cutFence(text, "```"); ok {
		candidate = fenced
	} else {
		// Bare answer: take the outermost object.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end == -1 || end < start {
			return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedModelOutput)
		}
		candidate = text[start : end+1]
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedModelOutput, err)
	}
	return data, nil
}

// cutFence returns the content of the first code fence opened by marker.
func cutFence(text, marker string) (string, bool) {
	_, after, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	content, _, found := strings.Cut(after, "```")
	if !found {
		return "", false
	}
	return content, true
}
