// File: internal/summarizer/fallback.go
package summarizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cadence-health/carebrief/api/schemas"
)

// fallbackSummaryLimit caps the synthesized top-level summary length.
const fallbackSummaryLimit = 500

// paragraphSplit matches blank-line boundaries between paragraphs.
var paragraphSplit = regexp.MustCompile(`\r?\n\s*\r?\n`)

// SynthesizeFallback builds a structurally valid response candidate from raw
// text that failed structured parsing. Each blank-line-delimited paragraph
// becomes one section; even a single non-empty input yields at least one
// section. The candidate still flows through the validator like any parsed
// response.
func SynthesizeFallback(raw string, now time.Time) map[string]any {
	paragraphs := splitParagraphs(raw)
	if len(paragraphs) == 0 {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			paragraphs = []string{trimmed}
		}
	}

	sectionMeta := func() map[string]any {
		return map[string]any{
			"generatedAt":    now.Format(time.RFC3339),
			"persona":        string(schemas.PersonaPatient),
			"template":       "fallback",
			"processingTime": 0,
		}
	}

	sections := make([]any, 0, len(paragraphs))
	ids := make([]string, 0, len(paragraphs))
	for i, para := range paragraphs {
		id := fmt.Sprintf("section-%d", i+1)
		ids = append(ids, id)
		sections = append(sections, map[string]any{
			"id":         id,
			"title":      fmt.Sprintf("Section %d", i+1),
			"content":    para,
			"confidence": 0.7,
			"sources":    []any{},
			"claims":     []any{},
			"metadata":   sectionMeta(),
		})
	}

	return map[string]any{
		"summary":  truncate(raw, fallbackSummaryLimit),
		"sections": sections,
		"metadata": map[string]any{
			"fallback":          true,
			"sectionsGenerated": ids,
		},
	}
}

func splitParagraphs(raw string) []string {
	var out []string
	for _, part := range paragraphSplit.Split(raw, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// truncate shortens s to at most maxLen characters, appending an ellipsis
// when anything was cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
