package llm

import "strings"

// ExtractJSONObject pulls a JSON object out of text that may be wrapped in
// markdown fences or surrounded by prose: first a ```json fenced block,
// else a bare ``` fenced block whose inner first character is '{' or '[', else the
// substring from the first '{' to the last '}', else the raw text.
func ExtractJSONObject(text string) string {
	return extractJSON(text, '{', '}')
}

// ExtractJSONArray is the array-shaped counterpart of ExtractJSONObject,
// used when extracting a JSON array of findings or verdicts.
func ExtractJSONArray(text string) string {
	return extractJSON(text, '[', ']')
}

func extractJSON(text string, open, close byte) string {
	if start := strings.Index(text, "```json"); start != -1 {
		content := text[start+len("```json"):]
		if end := strings.Index(content, "```"); end != -1 {
			return strings.TrimSpace(content[:end])
		}
	}
	if start := strings.Index(text, "```"); start != -1 {
		content := text[start+3:]
		if end := strings.Index(content, "```"); end != -1 {
			inner := strings.TrimSpace(content[:end])
			if len(inner) > 0 && (inner[0] == '{' || inner[0] == '[') {
				return inner
			}
		}
	}
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start != -1 && end != -1 && end >= start {
		return text[start : end+1]
	}
	return text
}
