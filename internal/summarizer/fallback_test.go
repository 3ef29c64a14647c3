package summarizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeFallback_ParagraphsBecomeSections(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	obj := SynthesizeFallback("Para one.\n\nPara two.", now)

	assert.Equal(t, "Para one.\n\nPara two.", obj["summary"])

	sections := obj["sections"].([]any)
	require.Len(t, sections, 2)

	first := sections[0].(map[string]any)
	assert.Equal(t, "section-1", first["id"])
	assert.Equal(t, "Section 1", first["title"])
	assert.Equal(t, "Para one.", first["content"])
	assert.Equal(t, 0.7, first["confidence"])
	assert.Equal(t, []any{}, first["sources"])
	assert.Equal(t, []any{}, first["claims"])

	meta := first["metadata"].(map[string]any)
	assert.Equal(t, "patient", meta["persona"])
	assert.Equal(t, "fallback", meta["template"])
	assert.Equal(t, now.Format(time.RFC3339), meta["generatedAt"])

	second := sections[1].(map[string]any)
	assert.Equal(t, "section-2", second["id"])

	topMeta := obj["metadata"].(map[string]any)
	assert.Equal(t, true, topMeta["fallback"])
	assert.Equal(t, []string{"section-1", "section-2"}, topMeta["sectionsGenerated"])
}

// A single line with no blank boundaries still yields one section.
func TestSynthesizeFallback_SingleParagraph(t *testing.T) {
	obj := SynthesizeFallback("Just one line of output.", time.Now())

	sections := obj["sections"].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, "Just one line of output.", sections[0].(map[string]any)["content"])
}

func TestSynthesizeFallback_TruncatesLongSummary(t *testing.T) {
	raw := strings.Repeat("a", 600)
	obj := SynthesizeFallback(raw, time.Now())

	summary := obj["summary"].(string)
	assert.Len(t, summary, 503)
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestSynthesizeFallback_ShortSummaryVerbatim(t *testing.T) {
	obj := SynthesizeFallback("short", time.Now())
	assert.Equal(t, "short", obj["summary"])
}

// Whitespace-only paragraphs are dropped, not turned into empty sections.
func TestSynthesizeFallback_SkipsBlankSegments(t *testing.T) {
	obj := SynthesizeFallback("First.\n\n   \n\nSecond.", time.Now())

	sections := obj["sections"].([]any)
	require.Len(t, sections, 2)
	assert.Equal(t, "First.", sections[0].(map[string]any)["content"])
	assert.Equal(t, "Second.", sections[1].(map[string]any)["content"])
}
