package rules

import "strings"

// ResolvePath walks a dot-separated field path through nested
// map[string]interface{} values. The second return reports whether the
// full path resolved.
func ResolvePath(state map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	var current interface{} = state
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
