// Package layering composes JSON-like documents ordered from strongest to
// weakest: explicit settings in stronger layers win and weaker layers fill
// whatever is missing.
package layering

import "github.com/goliatone/go-filters/internal/deepcopy"

// Merge composes layers ordered from strongest to weakest. Nested maps merge
// key by key; any other value (lists included) is taken whole from the
// strongest layer that sets it to something other than nil. The result never
// aliases the inputs.
func Merge(layers ...map[string]any) map[string]any {
	var merged map[string]any
	for i := len(layers) - 1; i >= 0; i-- {
		merged = mergeMaps(layers[i], merged)
	}
	return merged
}

func mergeMaps(strong, weak map[string]any) map[string]any {
	if strong == nil {
		return weak
	}
	result := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = value
	}
	for key, value := range strong {
		result[key] = mergeValue(value, result[key])
	}
	return result
}

func mergeValue(strong, weak any) any {
	if strong == nil {
		return weak
	}
	strongMap, ok := strong.(map[string]any)
	if !ok {
		return deepcopy.Clone(strong)
	}
	weakMap, _ := weak.(map[string]any)
	return mergeMaps(deepcopy.Clone(strongMap), weakMap)
}

// MergeByKey merges lists of objects ordered from strongest to weakest,
// matching entries on the string found under key. Matched entries are
// combined with Merge. The result keeps the weakest layer's order and
// appends unmatched entries as they first appear, walking from weaker to
// stronger layers. Entries without a key are appended unchanged.
func MergeByKey(key string, layers ...[]any) []any {
	var (
		result []any
		index  = map[string]int{}
	)
	for i := len(layers) - 1; i >= 0; i-- {
		for _, item := range layers[i] {
			entry, ok := item.(map[string]any)
			name, named := entry[key].(string)
			if !ok || !named || name == "" {
				result = append(result, deepcopy.Clone(item))
				continue
			}
			if pos, seen := index[name]; seen {
				weaker, _ := result[pos].(map[string]any)
				result[pos] = Merge(entry, weaker)
				continue
			}
			index[name] = len(result)
			result = append(result, Merge(entry))
		}
	}
	return result
}
