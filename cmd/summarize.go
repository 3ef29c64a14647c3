// File: cmd/summarize.go
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cadence-health/carebrief/api/schemas"
	"github.com/cadence-health/carebrief/internal/observability"
	"github.com/cadence-health/carebrief/internal/prompt"
	"github.com/cadence-health/carebrief/internal/provider"
	"github.com/cadence-health/carebrief/internal/store"
	"github.com/cadence-health/carebrief/internal/summarizer"
)

// batchConcurrency bounds how many bundles a batch run processes at once. The
// shared summarizer's rate limiter still serializes outbound provider calls.
const batchConcurrency = 4

var (
	summarizePersona string
	summarizeFocus   []string
	summarizeVariant string
	summarizeOutDir  string
	summarizeSave    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <bundle.json | directory>",
	Short: "Generate a persona-targeted summary from a clinical bundle.",
	Long: `Reads one clinical bundle (or every *.json bundle in a directory) and
generates a natural-language summary targeted at the configured persona.
Results are printed to stdout, or written next to each input when --out is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizePersona, "persona", "p", "patient", "target audience: patient, provider or caregiver")
	summarizeCmd.Flags().StringSliceVar(&summarizeFocus, "focus", nil, "focus areas, in priority order")
	summarizeCmd.Flags().StringVar(&summarizeVariant, "variant", "", "A/B test variant tag (opaque)")
	summarizeCmd.Flags().StringVarP(&summarizeOutDir, "out", "o", "", "directory to write .summary.json files to")
	summarizeCmd.Flags().BoolVar(&summarizeSave, "save", false, "persist results to the configured database")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	persona := schemas.Persona(summarizePersona)
	if !persona.Valid() {
		return fmt.Errorf("invalid persona %q: must be patient, provider or caregiver", summarizePersona)
	}

	client, err := provider.NewClient(ctx, cfg.Provider, logger)
	if err != nil {
		return err
	}

	summ := summarizer.New(client, prompt.NewBuilder(), logger,
		summarizer.WithRetryConfig(summarizer.RetryConfig{
			MaxRetries:        cfg.Summarizer.MaxRetries,
			BaseDelay:         cfg.Summarizer.BaseDelay,
			MaxDelay:          cfg.Summarizer.MaxDelay,
			BackoffMultiplier: cfg.Summarizer.BackoffMultiplier,
		}),
		summarizer.WithMinInterval(cfg.Summarizer.MinRequestInterval),
	)

	var history schemas.SummaryStore
	if summarizeSave {
		if !cfg.Database.Enabled {
			return fmt.Errorf("--save requires database.enabled in configuration")
		}
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		history, err = store.New(ctx, pool, logger)
		if err != nil {
			return err
		}
	}

	bundles, err := collectBundles(args[0])
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		return fmt.Errorf("no bundle files found at %s", args[0])
	}

	if len(bundles) == 1 {
		return summarizeOne(ctx, summ, history, persona, bundles[0], logger)
	}

	// Batch mode: bundles share one summarizer instance, so outbound pacing
	// holds across the whole run.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, bundle := range bundles {
		g.Go(func() error {
			return summarizeOne(gctx, summ, history, persona, bundle, logger)
		})
	}
	return g.Wait()
}

func summarizeOne(ctx context.Context, summ *summarizer.Summarizer, history schemas.SummaryStore,
	persona schemas.Persona, path string, logger *zap.Logger) error {

	data, err := loadBundle(path)
	if err != nil {
		return err
	}

	resp, err := summ.Summarize(ctx, schemas.SummaryRequest{
		ResourceData:    data,
		Persona:         persona,
		TemplateOptions: schemas.TemplateOptions{FocusAreas: summarizeFocus},
		ABTestVariant:   summarizeVariant,
	})
	if err != nil {
		return fmt.Errorf("summarize %s: %w", path, err)
	}

	if history != nil {
		rec := schemas.SummaryRecord{
			ID:         uuid.NewString(),
			Persona:    persona,
			TemplateID: metadataString(resp.Metadata, "templateId"),
			Summary:    resp.Summary,
			Sections:   resp.Sections,
			CreatedAt:  time.Now(),
		}
		if ms, ok := resp.Metadata["processingTime"].(float64); ok {
			rec.ProcessingTime = time.Duration(ms * float64(time.Millisecond))
		}
		if err := history.SaveSummary(ctx, rec); err != nil {
			// History is best-effort; the summary itself already succeeded.
			logger.Warn("Failed to persist summary", zap.String("bundle", path), zap.Error(err))
		}
	}

	return writeResult(path, resp)
}

func collectBundles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return filepath.Glob(filepath.Join(path, "*.json"))
}

func loadBundle(path string) (*schemas.ResourceData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", path, err)
	}
	var data schemas.ResourceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse bundle %s: %w", path, err)
	}
	return &data, nil
}

func writeResult(bundlePath string, resp *schemas.SummaryResponse) error {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if summarizeOutDir == "" {
		fmt.Println(string(out))
		return nil
	}

	name := strings.TrimSuffix(filepath.Base(bundlePath), filepath.Ext(bundlePath)) + ".summary.json"
	target := filepath.Join(summarizeOutDir, name)
	if err := os.WriteFile(target, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

func metadataString(md map[string]any, key string) string {
	if s, ok := md[key].(string); ok {
		return s
	}
	return ""
}
