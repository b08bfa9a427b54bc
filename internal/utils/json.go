package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractBalancedObject returns the first balanced {...} object in the input.
// Brace depth is tracked byte-by-byte, skipping braces inside JSON strings, so
// nested objects are handled correctly. Returns an error when no opening brace
// exists or the object is never closed.
func ExtractBalancedObject(input string) (string, error) {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(input); i++ {
		c := input[i]

		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object (depth %d at end of input)", depth)
}

// ExtractAndParseJSON extracts the first balanced JSON object from LLM
// response text and unmarshals it into T. Markdown code fences and trailing
// prose are tolerated; anything else is an error for the caller to degrade on.
func ExtractAndParseJSON[T any](response string) (T, error) {
	var result T

	cleaned := cleanLLMResponse(response)
	if cleaned == "" {
		return result, fmt.Errorf("no JSON found in response")
	}

	obj, err := ExtractBalancedObject(cleaned)
	if err != nil {
		// Maybe it's a quoted string containing JSON?
		var asString string
		if jsonErr := json.Unmarshal([]byte(cleaned), &asString); jsonErr == nil && asString != cleaned {
			return ExtractAndParseJSON[T](asString)
		}
		return result, err
	}

	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return result, fmt.Errorf("parse JSON: %w", err)
	}
	return result, nil
}

// cleanLLMResponse strips markdown code fences from LLM response text.
func cleanLLMResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	// Also handle suffix if it exists, regardless of prefix
	response = strings.TrimSuffix(response, "```")

	return strings.TrimSpace(response)
}
