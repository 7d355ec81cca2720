// Package strings holds small helpers for list-valued settings.
package strings

import (
	"strings"
)

// SplitList flattens comma separated entries, trims each item and drops
// empties and repeats. Order of first appearance is kept.
//
//	SplitList([]string{"kafka-1:9092, kafka-2:9092", "kafka-1:9092"})
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
