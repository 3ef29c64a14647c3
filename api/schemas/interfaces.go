package schemas

import (
	"context"
	"time"
)

// CompletionProvider is the transport boundary to an LLM text-completion
// service. Implementations must decode failures into *ProviderError or
// *TransportError so classification upstream operates on a closed type set.
// Complete returns the raw textual content of the model's reply; a non-text
// reply is a non-retryable format error.
type CompletionProvider interface {
	// Complete sends one completion request. maxTokens bounds the output.
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	// Name identifies the provider for logging.
	Name() string
}

// PromptBuilder turns a clinical bundle and persona into prompt text. It is a
// collaborator of the summarizer; a builder failure aborts the summarize call
// before any provider traffic.
type PromptBuilder interface {
	// BuildPrompt renders the user prompt for the given bundle and persona.
	BuildPrompt(data *ResourceData, persona Persona, opts TemplateOptions, abVariant string) (string, error)
	// SystemPrompt returns the persona's system prompt.
	SystemPrompt(persona Persona) string
	// Template reports the template id/version in use for a persona, if any.
	Template(persona Persona) (TemplateInfo, bool)
}

// SummaryRecord is a finished summary as persisted to history.
type SummaryRecord struct {
	ID             string
	Persona        Persona
	TemplateID     string
	Summary        string
	Sections       []Section
	ProcessingTime time.Duration
	CreatedAt      time.Time
}

// SummaryStore persists finished summaries. Persistence is best-effort and
// never blocks a summary from being returned to the caller.
type SummaryStore interface {
	SaveSummary(ctx context.Context, rec SummaryRecord) error
	GetRecent(ctx context.Context, limit int) ([]SummaryRecord, error)
}
