// Package abbrev rewrites JSON object keys in an invitation payload tree,
// compressing it for low-bandwidth transport (e.g. QR codes) and restoring
// it on the other side. Two table shapes are supported: a context-free
// abbreviate table and a context-sensitive (parent-aware) unabbreviate
// table.
package abbrev

import "fmt"

// ContextFreeTable renames long_name -> short_name regardless of where the
// key appears in the tree.
type ContextFreeTable map[string]string

// ContextRule matches a child key iff Short equals the key name AND either
// Parent is nil and the key sits directly in the root object (no enclosing
// key), or the immediate enclosing object's own key equals *Parent. Rules
// are evaluated in slice order; the first match wins.
type ContextRule struct {
	Short  string
	Parent *string
	Long   string
}

// ContextSensitiveTable is an ordered list of ContextRule.
type ContextSensitiveTable []ContextRule

// Abbreviate rewrites tree's keys using table, context-free.
func Abbreviate(tree any, table ContextFreeTable) (any, error) {
	return rewrite(tree, "", func(key, _ string) (string, bool) {
		long, ok := table[key]
		return long, ok
	})
}

// Unabbreviate rewrites tree's keys using table, honoring parent context.
func Unabbreviate(tree any, table ContextSensitiveTable) (any, error) {
	return rewrite(tree, "", func(key, parent string) (string, bool) {
		for _, rule := range table {
			if rule.Short != key {
				continue
			}
			if rule.Parent == nil {
				if parent == "" {
					return rule.Long, true
				}
				continue
			}
			if *rule.Parent == parent {
				return rule.Long, true
			}
		}
		return "", false
	})
}

// matchFn decides the replacement name for key given the key of its
// immediately enclosing object (parent is "" at the root).
type matchFn func(key, parent string) (string, bool)

// rewrite walks tree depth-first, carrying the key of the immediately
// enclosing object as explicit state rather than via recursion captures, so
// the context-sensitive match can consult it directly.
func rewrite(node any, parent string, match matchFn) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			newKey := key
			if renamed, ok := match(key, parent); ok {
				newKey = renamed
			}
			rewritten, err := rewrite(val, newKey, match)
			if err != nil {
				return nil, err
			}
			out[newKey] = rewritten
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			rewritten, err := rewrite(val, parent, match)
			if err != nil {
				return nil, err
			}
			out[i] = rewritten
		}
		return out, nil
	case nil, bool, float64, string:
		return v, nil
	default:
		return nil, fmt.Errorf("abbrev: unsupported node type %T", node)
	}
}
