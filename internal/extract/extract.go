// Package extract recovers structured payloads (JSON objects, source code)
// from unreliable model output. Generation backends return a single text blob
// that may be tagged JSON, fenced markdown, prose mixed with code, or any
// combination; the extractors here are layered so a sloppier format only gets
// a chance once every stricter one has failed.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Extraction method names, reported for observability only. They never change
// downstream behavior.
const (
	MethodMarkdownPython     = "markdown_python"
	MethodMarkdownAny        = "markdown_any"
	MethodSimpleTags         = "simple_tags"
	MethodLegacyJSON         = "legacy_json"
	MethodFunctionDefinition = "function_definition"
	MethodAnyCode            = "any_code"
	MethodNone               = "none"
)

// CodeResult carries the recovered code and the layer that produced it.
type CodeResult struct {
	Code   string
	Method string
}

var (
	pythonFenceRe = regexp.MustCompile("(?s)```[pP]ython[ \t]*\n(.*?)```")
	anyFenceRe    = regexp.MustCompile("(?s)```(?:\\w*)[ \t]*\n(.*?)```")
	simpleTagsRe  = regexp.MustCompile(`(?s)<[cC][oO][dD][eE]>\s*(.*?)\s*</[cC][oO][dD][eE]>`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// TaggedJSON returns the contents of <tag>...</tag> (case-insensitive),
// trimmed. When the tag pair is absent the whole trimmed text is returned;
// downstream JSON parsing fails cleanly if that fallback was wrong.
func TaggedJSON(text, tag string) string {
	lower := strings.ToLower(text)
	openTag := "<" + strings.ToLower(tag) + ">"
	closeTag := "</" + strings.ToLower(tag) + ">"

	start := strings.Index(lower, openTag)
	end := strings.Index(lower, closeTag)
	if start < 0 || end < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start+len(openTag) : end])
}

type codeLayer struct {
	method string
	fn     func(string) string
}

// Layers are ordered by decreasing reliability; the first hit wins. Each is a
// pure function of the input text.
var codeLayers = []codeLayer{
	{MethodMarkdownPython, tryMarkdownPython},
	{MethodMarkdownAny, tryMarkdownAny},
	{MethodSimpleTags, trySimpleTags},
	{MethodLegacyJSON, tryLegacyJSON},
	{MethodFunctionDefinition, tryFunctionDefinition},
	{MethodAnyCode, tryAnyCode},
}

// Code pulls source code out of a model response, trying each layer in order.
func Code(text string) CodeResult {
	for _, layer := range codeLayers {
		if code := layer.fn(text); code != "" {
			return CodeResult{Code: code, Method: layer.method}
		}
	}
	return CodeResult{Method: MethodNone}
}

func tryMarkdownPython(text string) string {
	if m := pythonFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// tryMarkdownAny accepts a fence with any (or no) language tag, but only if
// the content carries at least one code marker. That keeps fenced prose or
// program output from being mistaken for code.
func tryMarkdownAny(text string) string {
	if m := anyFenceRe.FindStringSubmatch(text); m != nil {
		code := strings.TrimSpace(m[1])
		if looksLikeCode(code) {
			return code
		}
	}
	return ""
}

func trySimpleTags(text string) string {
	if m := simpleTagsRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// tryLegacyJSON handles the structured deliverable format some backends still
// emit: an optional <CODE_DELIVERABLE> envelope around a JSON object whose
// "code" field holds the source, possibly wrapped in one markdown fence and
// possibly with trailing commas.
func tryLegacyJSON(text string) string {
	blob := TaggedJSON(text, "CODE_DELIVERABLE")

	if strings.HasPrefix(blob, "```") {
		lines := strings.Split(blob, "\n")
		if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		blob = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	blob = trailingComma.ReplaceAllString(blob, "$1")

	var payload map[string]any
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return ""
	}
	if code, ok := payload["code"].(string); ok {
		return strings.TrimSpace(code)
	}
	return ""
}

// tryFunctionDefinition scans raw lines for the first import/def line and
// collects from there to the next fence close or closing tag. Handles
// responses where the model wrote explanations before bare code.
func tryFunctionDefinition(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "from ") || strings.HasPrefix(s, "import ") || strings.HasPrefix(s, "def ") {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	var collected []string
	for _, line := range lines[start:] {
		s := strings.TrimSpace(line)
		if s == "```" || strings.HasPrefix(s, "</") {
			break
		}
		collected = append(collected, line)
	}

	code := strings.TrimSpace(strings.Join(collected, "\n"))
	if strings.Contains(code, "def ") {
		return code
	}
	return ""
}

// tryAnyCode is the last resort: collect from the first definition-, import-,
// or decorator-looking line until a fence, closing tag, or markdown heading.
func tryAnyCode(text string) string {
	var collected []string
	inCode := false

	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)

		if !inCode {
			if strings.HasPrefix(s, "def ") ||
				strings.HasPrefix(s, "class ") ||
				strings.HasPrefix(s, "import ") ||
				strings.HasPrefix(s, "from ") ||
				strings.HasPrefix(s, "@") {
				inCode = true
			}
		}
		if !inCode {
			continue
		}

		// A bare "#word" line is a markdown heading, not a comment.
		if strings.HasPrefix(s, "#") && !strings.HasPrefix(s, "# ") {
			break
		}
		if strings.HasPrefix(s, "```") || strings.HasPrefix(s, "</") {
			break
		}
		collected = append(collected, line)
	}

	code := strings.TrimSpace(strings.Join(collected, "\n"))
	if strings.Contains(code, "def ") {
		return code
	}
	return ""
}

func looksLikeCode(s string) bool {
	return strings.Contains(s, "def ") || strings.Contains(s, "import ") || strings.Contains(s, "class ")
}
