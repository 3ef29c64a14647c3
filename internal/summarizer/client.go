// File: internal/summarizer/client.go

// Package summarizer turns a structured clinical bundle into a
// schema-validated natural-language summary by driving an external LLM
// completion provider. It owns the resilient middle of that pipeline: token
// budgeting, outbound pacing, a bounded retry loop over a closed error
// taxonomy, and strict-but-forgiving parsing of the model's reply with
// fallback synthesis when the model does not comply.
package summarizer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
)

// Summarizer composes the budget calculator, rate limiter, retry engine,
// parser and validator around a completion provider and prompt builder. One
// instance may be shared across concurrent callers: the retry config is
// read-only after construction and the rate limiter is the only mutable
// shared state.
type Summarizer struct {
	provider schemas.CompletionProvider
	prompts  schemas.PromptBuilder
	limiter  *RateLimiter
	retry    *retryEngine
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes Summarizer construction.
type Option func(*Summarizer)

// WithRetryConfig overrides part or all of the retry schedule. Zero-valued
// fields keep their defaults.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Summarizer) { s.retry = newRetryEngine(cfg, s.limiter, s.logger) }
}

// WithMinInterval overrides the minimum spacing between outbound provider
// calls.
func WithMinInterval(d time.Duration) Option {
	return func(s *Summarizer) {
		s.limiter = NewRateLimiter(d)
		s.retry.limiter = s.limiter
	}
}

// New creates a Summarizer around the given provider and prompt builder.
func New(provider schemas.CompletionProvider, prompts schemas.PromptBuilder, logger *zap.Logger, opts ...Option) *Summarizer {
	s := &Summarizer{
		provider: provider,
		prompts:  prompts,
		logger:   logger.Named("summarizer"),
		now:      time.Now,
	}
	s.limiter = NewRateLimiter(defaultMinInterval)
	s.retry = newRetryEngine(DefaultRetryConfig(), s.limiter, s.logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize runs the full pipeline for one request. It either returns a fully
// validated SummaryResponse or a *SummaryError carrying the taxonomy kind,
// retryability and call timing around the original failure — never a partial
// result. Cancellation mid-flight is not supported beyond the context passed
// to the provider call.
func (s *Summarizer) Summarize(ctx context.Context, req schemas.SummaryRequest) (*schemas.SummaryResponse, error) {
	start := s.now()
	log := s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("persona", string(req.Persona)),
	)

	if err := validateRequest(req); err != nil {
		return nil, s.wrap(schemas.ErrKindValidation, false, err.Error(), req.Persona, start, err)
	}

	userPrompt, err := s.prompts.BuildPrompt(req.ResourceData, req.Persona, req.TemplateOptions, req.ABTestVariant)
	if err != nil {
		return nil, s.wrap(schemas.ErrKindValidation, false, "prompt construction failed", req.Persona, start, err)
	}
	systemPrompt := s.prompts.SystemPrompt(req.Persona)

	maxTokens := TokenBudget(req.Persona, req.ResourceData)
	log.Debug("Token budget computed", zap.Int("max_tokens", maxTokens))

	raw, err := s.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return s.provider.Complete(ctx, systemPrompt, userPrompt, maxTokens)
	})
	if err != nil {
		info := Classify(err)
		log.Error("Provider call failed terminally",
			zap.String("kind", string(info.Kind)), zap.Error(err))
		return nil, s.wrap(info.Kind, info.Retryable, info.Message, req.Persona, start, err)
	}

	obj, parsed := ExtractObject(raw)
	if !parsed {
		log.Warn("No structured object in model output; synthesizing fallback response",
			zap.Int("raw_length", len(raw)))
		obj = SynthesizeFallback(raw, s.now())
	}

	templateID := "unknown"
	templateVersion := "1.0.0"
	if info, ok := s.prompts.Template(req.Persona); ok {
		templateID = info.ID
		templateVersion = info.Version
	}

	resp, err := ValidateResponse(obj, req.Persona, templateID, s.now())
	if err != nil {
		// The provider call itself succeeded; a structural defect at this point
		// is not retried, since repeating it could mask a systematic
		// prompt/schema mismatch.
		log.Error("Response failed structural validation", zap.Error(err))
		return nil, s.wrap(schemas.ErrKindStructural, false, err.Error(), req.Persona, start, err)
	}

	elapsed := s.now().Sub(start)
	resp.Metadata["processingTime"] = float64(elapsed.Microseconds()) / 1000.0
	resp.Metadata["timestamp"] = s.now().Format(time.RFC3339)
	resp.Metadata["templateId"] = templateID
	resp.Metadata["templateVersion"] = templateVersion

	log.Info("Summary generated",
		zap.Int("sections", len(resp.Sections)),
		zap.Bool("fallback", !parsed),
		zap.Duration("elapsed", elapsed),
		zap.Uint64("requests_issued", s.limiter.RequestCount()),
	)
	return resp, nil
}

// validateRequest rejects requests the pipeline cannot act on, before any
// provider traffic.
func validateRequest(req schemas.SummaryRequest) error {
	if !req.Persona.Valid() {
		return errors.New("persona must be one of patient, provider, caregiver")
	}
	if req.ResourceData == nil {
		return errors.New("resourceData is required")
	}
	if len(req.ResourceData.Patient) == 0 {
		return errors.New("resourceData.patient is required")
	}
	return nil
}

func (s *Summarizer) wrap(kind schemas.ErrorKind, retryable bool, message string, persona schemas.Persona, start time.Time, err error) *SummaryError {
	return &SummaryError{
		Kind:           kind,
		Retryable:      retryable,
		Message:        message,
		Persona:        persona,
		ProcessingTime: s.now().Sub(start),
		Err:            err,
	}
}
