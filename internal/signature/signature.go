// Package signature extracts Python function headers from free-form text and
// compares them for contract preservation. A header is anything shaped like
// `def name(params)` with an optional `-> ReturnType` arrow before the
// terminating colon; the surrounding text can be prose, markdown, or code.
package signature

import (
	"fmt"
	"regexp"
	"strings"
)

// PlaceholderName is the generic function name used by benchmark requirements
// for "the function under test". It compares equal to any concrete name.
const PlaceholderName = "candidate"

var (
	headerRe = regexp.MustCompile(`def\s+(\w+)\s*\(([^)]*)\)`)
	returnRe = regexp.MustCompile(`^\)\s*->\s*([^:]+):`)
)

// Param is a single declared parameter. Type is empty when the declaration
// carries no annotation.
type Param struct {
	Name string
	Type string
}

// FunctionSignature is the parsed shape of a function header.
type FunctionSignature struct {
	Name   string
	Params []Param
	Return string
}

// Extract parses the first function header found in text. Returns nil when no
// header is present; callers treat that as "skip validation", never as an
// error.
func Extract(text string) *FunctionSignature {
	loc := headerRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil
	}

	name := text[loc[2]:loc[3]]
	paramsRaw := strings.TrimSpace(text[loc[4]:loc[5]])

	sig := &FunctionSignature{Name: name}

	for _, part := range SplitParams(paramsRaw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, ":"); idx >= 0 {
			pname := strings.TrimSpace(part[:idx])
			ptype := strings.TrimSpace(part[idx+1:])
			// Strip a default value suffix before capturing the type.
			if eq := strings.Index(ptype, "="); eq >= 0 {
				ptype = strings.TrimSpace(ptype[:eq])
			}
			sig.Params = append(sig.Params, Param{Name: pname, Type: ptype})
		} else {
			pname := part
			if eq := strings.Index(pname, "="); eq >= 0 {
				pname = strings.TrimSpace(pname[:eq])
			}
			sig.Params = append(sig.Params, Param{Name: pname})
		}
	}

	// The return arrow, if any, sits right after the closing paren of the
	// matched header.
	rest := text[loc[1]-1:]
	if m := returnRe.FindStringSubmatch(rest); m != nil {
		sig.Return = strings.TrimSpace(m[1])
	}

	return sig
}

// SplitParams splits a parameter list on top-level commas only, tracking
// bracket depth across (, [ and { so parameterized container types such as
// List[int, str] stay intact.
func SplitParams(s string) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '[', '{':
			depth++
			current.WriteRune(ch)
		case ')', ']', '}':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// Compare checks whether b preserves a's contract: same name (modulo the
// placeholder), same parameter count, and equal declared parameter types.
// A nil side passes: "cannot parse" is treated as "assume valid". Return
// types are intentionally not compared here.
func Compare(a, b *FunctionSignature) (bool, string) {
	if a == nil || b == nil {
		return true, ""
	}

	if a.Name != b.Name && a.Name != PlaceholderName && b.Name != PlaceholderName {
		return false, fmt.Sprintf("function name changed from %q to %q", a.Name, b.Name)
	}

	if len(a.Params) != len(b.Params) {
		return false, fmt.Sprintf("parameter count changed from %d to %d", len(a.Params), len(b.Params))
	}

	for i := range a.Params {
		at, bt := a.Params[i].Type, b.Params[i].Type
		if at == "" || bt == "" {
			continue
		}
		if normalizeType(at) != normalizeType(bt) {
			return false, fmt.Sprintf("parameter %d type changed from %q to %q", i+1, at, bt)
		}
	}

	return true, ""
}

// Render formats the signature back into a Python def header.
func (s *FunctionSignature) Render() string {
	parts := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Type != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Type))
		} else {
			parts = append(parts, p.Name)
		}
	}
	header := fmt.Sprintf("def %s(%s)", s.Name, strings.Join(parts, ", "))
	if s.Return != "" {
		header += " -> " + s.Return
	}
	return header + ":"
}

func normalizeType(t string) string {
	return strings.ReplaceAll(t, " ", "")
}
