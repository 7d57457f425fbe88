package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxFlattenDepth caps the recursive descent over nested entity attributes
// so arbitrary admin-entered JSON can never recurse unboundedly.
const maxFlattenDepth = 3

// FlattenJSONText collects every string and scalar reachable in a nested
// attribute payload, for substring matching by the keyword tier.
func FlattenJSONText(v any) []string {
	var out []string
	flattenText(v, 0, &out)
	return out
}

func flattenText(v any, depth int, out *[]string) {
	if depth > maxFlattenDepth {
		return
	}
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			*out = append(*out, s)
		}
	case float64:
		*out = append(*out, strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		*out = append(*out, strconv.FormatBool(val))
	case []any:
		for _, item := range val {
			flattenText(item, depth+1, out)
		}
	case map[string]any:
		for key, item := range val {
			*out = append(*out, key)
			flattenText(item, depth+1, out)
		}
	}
}

// FormatJSONInfo renders a nested attribute payload as indented bullet text
// for the generation prompt. Depth-capped like the flattener; map keys are
// emitted in sorted order so the output is deterministic.
func FormatJSONInfo(v any) string {
	var sb strings.Builder
	formatInfo(v, 0, &sb)
	return sb.String()
}

func formatInfo(v any, depth int, sb *strings.Builder) {
	if depth > maxFlattenDepth {
		return
	}
	indent := strings.Repeat("   ", depth)

	switch val := v.(type) {
	case []any:
		for i, item := range val {
			switch inner := item.(type) {
			case map[string]any:
				fmt.Fprintf(sb, "%s%d. ", indent, i+1)
				if name := firstNonEmpty(inner, "name", "id", "title"); name != "" {
					fmt.Fprintf(sb, "**%s**", name)
				}
				sb.WriteString("\n")
				formatInfo(inner, depth+1, sb)
			case string:
				fmt.Fprintf(sb, "%s%d. %s\n", indent, i+1, inner)
			}
		}
	case map[string]any:
		for _, key := range sortedKeys(val) {
			switch inner := val[key].(type) {
			case []any:
				if len(inner) > 0 {
					fmt.Fprintf(sb, "%s**%s:**\n", indent, key)
					formatInfo(inner, depth+1, sb)
				}
			case map[string]any:
				fmt.Fprintf(sb, "%s**%s:**\n", indent, key)
				formatInfo(inner, depth+1, sb)
			case string:
				if strings.TrimSpace(inner) != "" {
					fmt.Fprintf(sb, "%s- %s: %s\n", indent, key, inner)
				}
			case float64:
				fmt.Fprintf(sb, "%s- %s: %s\n", indent, key, strconv.FormatFloat(inner, 'g', -1, 64))
			case bool:
				fmt.Fprintf(sb, "%s- %s: %t\n", indent, key, inner)
			}
		}
	}
}

func firstNonEmpty(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
