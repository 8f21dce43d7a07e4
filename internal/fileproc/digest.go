package fileproc

import (
	"fmt"
	"sort"
	"strings"

	"gidvion/internal/domain"
)

// FormatProcessedFiles renders a human-readable digest of extraction
// results for inclusion in an outgoing chat query.
func FormatProcessedFiles(files []domain.ProcessedFile) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "File: %s (%s)\n", f.Filename, f.Type)
		if len(f.Metadata) > 0 {
			keys := make([]string, 0, len(f.Metadata))
			for k := range f.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, fmt.Sprintf("%s=%v", k, f.Metadata[k]))
			}
			fmt.Fprintf(&b, "Metadata: %s\n", strings.Join(pairs, ", "))
		}
		if f.Failed() {
			fmt.Fprintf(&b, "Error: %s\n", f.Err)
			continue
		}
		b.WriteString(f.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// Stats aggregates a batch of extraction results.
type Stats struct {
	Processed       int
	Failed          int
	ByType          map[string]int
	TotalWords      int
	TotalCharacters int
}

// GetProcessingStats summarizes success/failure counts, per-type counts
// and total word/character counts across a result set.
func GetProcessingStats(files []domain.ProcessedFile) Stats {
	stats := Stats{ByType: make(map[string]int)}
	for _, f := range files {
		if f.Failed() {
			stats.Failed++
			continue
		}
		stats.Processed++
		stats.ByType[Classify(f.Filename, f.Type).String()]++
		stats.TotalWords += len(strings.Fields(f.Content))
		stats.TotalCharacters += len(f.Content)
	}
	return stats
}
