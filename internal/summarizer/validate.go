// File: internal/summarizer/validate.go
package summarizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cadence-health/carebrief/api/schemas"
)

// defaultConfidence replaces out-of-range or non-numeric section confidence.
const defaultConfidence = 0.8

// ValidationError reports structural defects found in a response candidate.
// Problems are accumulated across the whole candidate before the error is
// raised, so one defective section never hides defects in later ones.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// ValidateResponse enforces the output schema on a response candidate,
// coercing recoverable defects (confidence, sources, claims, metadata) and
// accumulating unrecoverable ones. templateID is the collaborator's template
// id for the request persona, or "unknown". Returns a *ValidationError when
// any section is structurally broken; such a failure is non-retryable.
func ValidateResponse(obj map[string]any, persona schemas.Persona, templateID string, now time.Time) (*schemas.SummaryResponse, error) {
	var problems []string

	summary, ok := obj["summary"].(string)
	if !ok || summary == "" {
		problems = append(problems, "response missing required non-empty summary")
	}

	rawSections, ok := obj["sections"].([]any)
	if !ok {
		problems = append(problems, "response sections must be a list")
	}

	sections := make([]schemas.Section, 0, len(rawSections))
	ids := make([]string, 0, len(rawSections))
	for i, rawSection := range rawSections {
		sec, ok := rawSection.(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("section %d is not an object", i+1))
			continue
		}

		id := stringField(sec["id"])
		title := stringField(sec["title"])
		content := stringField(sec["content"])

		var missing []string
		if id == "" {
			missing = append(missing, "id")
		}
		if title == "" {
			missing = append(missing, "title")
		}
		if content == "" {
			missing = append(missing, "content")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf(
				"section %d missing required fields: %s", i+1, strings.Join(missing, ", ")))
			continue
		}

		metadata := map[string]any{
			"generatedAt":    now.Format(time.RFC3339),
			"persona":        string(persona),
			"template":       templateID,
			"processingTime": 0,
		}
		// Existing metadata fields win over defaults.
		if existing, ok := sec["metadata"].(map[string]any); ok {
			for k, v := range existing {
				metadata[k] = v
			}
		}

		sections = append(sections, schemas.Section{
			ID:         id,
			Title:      title,
			Content:    content,
			Confidence: coerceConfidence(sec["confidence"]),
			Sources:    coerceStringList(sec["sources"]),
			Claims:     coerceStringList(sec["claims"]),
			Metadata:   metadata,
		})
		ids = append(ids, id)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	metadata := map[string]any{
		"persona":           string(persona),
		"sectionsGenerated": ids,
	}
	// Same precedence rule as section metadata: existing fields win.
	if existing, ok := obj["metadata"].(map[string]any); ok {
		for k, v := range existing {
			metadata[k] = v
		}
	}

	return &schemas.SummaryResponse{
		Summary:  summary,
		Sections: sections,
		Metadata: metadata,
	}, nil
}

// stringField renders a section field for the required-field check. Scalar
// non-string values are tolerated and stringified; missing or empty values
// yield "".
func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, int, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

// coerceConfidence keeps a numeric confidence within [0,1]; anything else is
// replaced by the default.
func coerceConfidence(v any) float64 {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case int:
		c = float64(t)
	default:
		return defaultConfidence
	}
	if c < 0 || c > 1 {
		return defaultConfidence
	}
	return c
}

// coerceStringList guarantees a non-nil list of strings. Non-list input is
// replaced by an empty list; non-string elements are stringified.
func coerceStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		return append(out, t...)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
	}
	return out
}
