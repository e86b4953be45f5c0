package collect

import (
	"regexp"
	"strings"
)

// Recipe files are templated: "{% set version = "1.17" %}" directives at the
// top, "{{ version }}" substitutions in the body, and build-environment
// helper calls we have no use for.  renderMeta reduces a templated recipe to
// plain YAML the same way the collection pipeline always has: set-directives
// populate a context, known expressions substitute, everything else renders
// empty.
var (
	setExpr       = regexp.MustCompile(`\{%-?\s*set\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?)\s*-?%\}`)
	directiveExpr = regexp.MustCompile(`\{%-?.*?-?%\}`)
	substExpr     = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)
)

func renderMeta(src string) string {
	// Pass 1: collect set-directive variables.
	vars := map[string]string{}
	for _, m := range setExpr.FindAllStringSubmatch(src, -1) {
		vars[m[1]] = literalValue(m[2])
	}

	// Pass 2: substitute expressions.
	out := substExpr.ReplaceAllStringFunc(src, func(match string) string {
		expr := substExpr.FindStringSubmatch(match)[1]
		return evalExpr(expr, vars)
	})

	// Pass 3: drop remaining directives ({% set ... %}, {% if ... %}, ...).
	out = directiveExpr.ReplaceAllString(out, "")

	return out
}

// literalValue unquotes simple string literals; anything fancier renders as
// the empty string.
func literalValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	if isBareWord(raw) {
		return raw
	}
	return ""
}

// evalExpr resolves "name" or "name|filter" against the variable context.
// Helper invocations like compiler('c') have no rendering and yield "".
func evalExpr(expr string, vars map[string]string) string {
	parts := strings.Split(expr, "|")
	name := strings.TrimSpace(parts[0])

	val, ok := vars[name]
	if !ok {
		if lit := literalValue(name); lit != name || isQuoted(name) {
			val = lit
		} else {
			return ""
		}
	}

	for _, filter := range parts[1:] {
		switch strings.TrimSpace(filter) {
		case "lower":
			val = strings.ToLower(val)
		case "upper":
			val = strings.ToUpper(val)
		}
	}
	return val
}

func isQuoted(raw string) bool {
	raw = strings.TrimSpace(raw)
	return len(raw) >= 2 && ((raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\''))
}

func isBareWord(raw string) bool {
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if !(r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
