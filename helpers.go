package downsite

import "slices"

// anyToStringSlice converts a stored bleve field value to a []string
func anyToStringSlice(value any) []string {
	if val, ok := value.(string); ok {
		return []string{val}
	} else if val, ok := value.([]any); ok {
		var result []string
		for _, v := range val {
			if s, ok := v.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}

	return []string{}
}

// uniqueTerms returns the sorted, de-duplicated terms.
func uniqueTerms(terms []string) []string {
	return slices.Compact(slices.Sorted(slices.Values(terms)))
}
