// File: internal/prompt/builder.go
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cadence-health/carebrief/api/schemas"
)

// template couples a persona's prompt scaffolding with its identity. The id
// and version surface in response metadata so downstream consumers can tell
// which prompt generation produced a summary.
type template struct {
	info    schemas.TemplateInfo
	system  string
	opening string
}

// Builder renders persona-specific prompts from a clinical bundle. It
// implements schemas.PromptBuilder. Builders are immutable after construction
// and safe for concurrent use.
type Builder struct {
	templates map[schemas.Persona]template
}

// NewBuilder constructs a Builder with the built-in persona templates.
func NewBuilder() *Builder {
	return &Builder{
		templates: map[schemas.Persona]template{
			schemas.PersonaPatient: {
				info: schemas.TemplateInfo{ID: "patient-summary-v2", Version: "2.1.0"},
				system: "You are a health communicator writing for the patient themselves. " +
					"Use plain, reassuring eighth-grade language. Never speculate beyond the " +
					"data provided and never give treatment advice.",
				opening: "Write a summary of this patient's health record for the patient to read.",
			},
			schemas.PersonaProvider: {
				info: schemas.TemplateInfo{ID: "provider-summary-v2", Version: "2.1.0"},
				system: "You are a clinical documentation assistant writing for a treating " +
					"clinician. Use precise clinical terminology and cite the source resources " +
					"for every claim.",
				opening: "Write a clinical summary of this patient record for the treating provider.",
			},
			schemas.PersonaCaregiver: {
				info: schemas.TemplateInfo{ID: "caregiver-summary-v2", Version: "2.1.0"},
				system: "You are a health communicator writing for a family caregiver. Use " +
					"clear, practical language focused on day-to-day care. Never speculate " +
					"beyond the data provided.",
				opening: "Write a summary of this patient's health record for their caregiver.",
			},
		},
	}
}

// outputContract is appended to every prompt so the model knows the JSON shape
// the validator expects.
const outputContract = `Respond with a single JSON object of the form:
{
  "summary": "<one-paragraph overview>",
  "sections": [
    {"id": "<kebab-case-id>", "title": "...", "content": "...", "confidence": 0.0, "sources": [], "claims": []}
  ]
}
Do not include any text outside the JSON object.`

// BuildPrompt renders the user prompt for the given bundle and persona.
func (b *Builder) BuildPrompt(data *schemas.ResourceData, persona schemas.Persona, opts schemas.TemplateOptions, abVariant string) (string, error) {
	tmpl, ok := b.templates[persona]
	if !ok {
		return "", fmt.Errorf("no prompt template registered for persona %q", persona)
	}

	bundle, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize resource data: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(tmpl.opening)
	sb.WriteString("\n\n")

	if len(opts.FocusAreas) > 0 {
		sb.WriteString("Give particular attention to the following areas, in order of priority:\n")
		for i, area := range opts.FocusAreas {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, area)
		}
		sb.WriteString("\n")
	}

	if abVariant != "" {
		// Experiment variants are opaque pass-throughs; the template layer only
		// tags them so prompt analytics can segment results.
		fmt.Fprintf(&sb, "[variant:%s]\n\n", abVariant)
	}

	sb.WriteString("Patient record (FHIR-derived JSON):\n")
	sb.Write(bundle)
	sb.WriteString("\n\n")
	sb.WriteString(outputContract)

	return sb.String(), nil
}

// SystemPrompt returns the persona's system prompt, or an empty string for an
// unknown persona.
func (b *Builder) SystemPrompt(persona schemas.Persona) string {
	return b.templates[persona].system
}

// Template reports the template identity for a persona.
func (b *Builder) Template(persona schemas.Persona) (schemas.TemplateInfo, bool) {
	tmpl, ok := b.templates[persona]
	return tmpl.info, ok
}
