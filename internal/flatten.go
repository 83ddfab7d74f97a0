package internal

import "strconv"

// Flatten collapses a nested payload map into a single level, joining nested
// keys with "." and indexing array elements with "[i]". Arrays are also kept
// whole under their own key so expressions can test membership.
func Flatten(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		flattenValue(out, key, value)
	}
	return out
}

func flattenValue(out map[string]interface{}, path string, value interface{}) {
	switch typed := value.(type) {
	case map[string]interface{}:
		for key, child := range typed {
			flattenValue(out, path+"."+key, child)
		}
	case []interface{}:
		out[path] = typed
		for i, child := range typed {
			flattenValue(out, path+"["+strconv.Itoa(i)+"]", child)
		}
	default:
		out[path] = value
	}
}
