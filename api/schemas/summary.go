package schemas

// Persona identifies the target audience for a generated summary. It shapes
// both the token budget and the default voice of the output.
type Persona string

const (
	PersonaPatient   Persona = "patient"
	PersonaProvider  Persona = "provider"
	PersonaCaregiver Persona = "caregiver"
)

// Valid reports whether the persona is one of the three supported audiences.
func (p Persona) Valid() bool {
	switch p {
	case PersonaPatient, PersonaProvider, PersonaCaregiver:
		return true
	}
	return false
}

// ResourceData is the structured clinical bundle a summary is generated from.
// The summarizer only inspects the patient sub-structure for presence and the
// collection lengths for complexity scoring; everything else is passed through
// to the prompt builder untouched.
type ResourceData struct {
	Patient     map[string]any   `json:"patient"`
	Conditions  []map[string]any `json:"conditions,omitempty"`
	Medications []map[string]any `json:"medications,omitempty"`
	LabValues   []map[string]any `json:"labValues,omitempty"`
}

// TemplateOptions carries caller hints for prompt construction. FocusAreas is
// an ordered list; order is preserved in the generated prompt. Extra is an
// opaque bag forwarded to the prompt builder.
type TemplateOptions struct {
	FocusAreas []string       `json:"focusAreas,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// SummaryRequest is the input to Summarizer.Summarize. It is treated as
// immutable for the duration of one call.
type SummaryRequest struct {
	ResourceData    *ResourceData   `json:"resourceData"`
	Persona         Persona         `json:"persona"`
	TemplateOptions TemplateOptions `json:"templateOptions,omitempty"`
	ABTestVariant   string          `json:"abTestVariant,omitempty"`
}

// Section is one unit of a generated summary. After validation, Confidence is
// always within [0,1], Sources and Claims are never nil, and Metadata always
// carries generatedAt, persona, template and processingTime.
type Section struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Sources    []string       `json:"sources"`
	Claims     []string       `json:"claims"`
	Metadata   map[string]any `json:"metadata"`
}

// SummaryResponse is the fully validated result of a summarize call. Section
// order is generation order and is meaningful; Metadata.sectionsGenerated
// mirrors the section ids in that order.
type SummaryResponse struct {
	Summary  string         `json:"summary"`
	Sections []Section      `json:"sections"`
	Metadata map[string]any `json:"metadata"`
}

// TemplateInfo identifies the prompt template used for a persona.
type TemplateInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}
