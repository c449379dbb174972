// Package notes implements the release notes generation pipeline:
// token-bounded chunking, per-chunk completions, and recombination of
// the partial drafts into one templated document.
package notes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/vendors"
)

var logger = log.GetLogger("Notes")

// Completer is the LLM surface the pipeline needs. *vendors.OpenAIClient
// satisfies it; tests inject fakes.
type Completer interface {
	Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error)
	Model() string
}

// GeneratorOptions tunes the pipeline. Zero values fall back to the
// configured defaults.
type GeneratorOptions struct {
	TargetTokens  int
	OverlapTokens int
	Concurrency   int
	MaxRetries    int
	RetryBackoff  time.Duration
	Template      string
}

// Generator runs the release notes pipeline against one LLM client
type Generator struct {
	llm          Completer
	chunker      *Chunker
	template     string
	concurrency  int
	maxRetries   int
	retryBackoff time.Duration
}

// Result is the outcome of one generation run
type Result struct {
	Notes         string
	Model         string
	ChunkCount    int
	DroppedChunks int
	Usage         vendors.Usage
}

// NewGenerator creates a pipeline with explicit options
func NewGenerator(llm Completer, opts GeneratorOptions) (*Generator, error) {
	cfg := config.Get()

	if opts.TargetTokens <= 0 {
		opts.TargetTokens = cfg.ChunkTargetTokens
	}
	if opts.OverlapTokens <= 0 {
		opts.OverlapTokens = cfg.ChunkOverlapTokens
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.ChunkConcurrency
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = cfg.RetryBackoff
	}
	chunker, err := NewChunker(opts.TargetTokens, opts.OverlapTokens)
	if err != nil {
		return nil, err
	}

	return &Generator{
		llm:          llm,
		chunker:      chunker,
		template:     opts.Template,
		concurrency:  opts.Concurrency,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}, nil
}

// Generate produces release notes from a transcript. The reference
// template is resolved per run so settings overrides apply to a
// long-lived generator.
func (g *Generator) Generate(ctx context.Context, transcript string) (*Result, error) {
	chunks := g.chunker.Split(transcript)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("transcript is empty")
	}

	template := g.template
	if template == "" {
		template = Template()
	}

	result := &Result{
		Model:      g.llm.Model(),
		ChunkCount: len(chunks),
	}

	logger.Info().
		Int("chunks", len(chunks)).
		Int("transcriptTokens", g.chunker.CountTokens(transcript)).
		Msg("starting generation")

	if len(chunks) == 1 {
		resp, err := g.completeWithRetry(ctx, vendors.CompletionOptions{
			SystemPrompt: renderPrompt(releaseNotesSystemPrompt, map[string]string{"TEMPLATE": template}),
			Prompt:       renderPrompt(singleUserPrompt, map[string]string{"CONTENT": chunks[0].Text}),
			Temperature:  0.7,
		})
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		result.Notes = resp.Content
		result.Usage.Add(resp.Usage)
		return result, nil
	}

	drafts, usage, dropped, err := g.generateDrafts(ctx, template, chunks)
	if err != nil {
		return nil, err
	}
	result.Usage.Add(usage)
	result.DroppedChunks = dropped

	notes, mergeUsage := g.recombine(ctx, template, drafts)
	result.Notes = notes
	result.Usage.Add(mergeUsage)

	return result, nil
}

// generateDrafts runs per-chunk completions in parallel. Chunks that
// still fail after retries are dropped as long as at least one chunk
// succeeded.
func (g *Generator) generateDrafts(ctx context.Context, template string, chunks []Chunk) ([]string, vendors.Usage, int, error) {
	systemPrompt := renderPrompt(releaseNotesSystemPrompt, map[string]string{"TEMPLATE": template})

	drafts := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	var mu sync.Mutex
	var usage vendors.Usage

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)

	for i, chunk := range chunks {
		group.Go(func() error {
			resp, err := g.completeWithRetry(groupCtx, vendors.CompletionOptions{
				SystemPrompt: systemPrompt,
				Prompt: renderPrompt(chunkUserPrompt, map[string]string{
					"PART":    fmt.Sprintf("%d", chunk.Index+1),
					"TOTAL":   fmt.Sprintf("%d", chunk.Count),
					"CONTENT": chunk.Text,
				}),
				Temperature: 0.7,
			})
			if err != nil {
				logger.Warn().Err(err).Int("chunk", chunk.Index).Msg("chunk generation failed, dropping")
				errs[i] = err
				return nil
			}

			drafts[i] = resp.Content
			mu.Lock()
			usage.Add(resp.Usage)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, usage, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, usage, 0, err
	}

	var kept []string
	dropped := 0
	for i := range chunks {
		if errs[i] != nil {
			dropped++
			continue
		}
		kept = append(kept, drafts[i])
	}

	if len(kept) == 0 {
		return nil, usage, dropped, fmt.Errorf("all %d chunks failed, last error: %w", len(chunks), errs[len(errs)-1])
	}
	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Int("kept", len(kept)).Msg("continuing with partial drafts")
	}

	return kept, usage, dropped, nil
}

// recombine merges partial drafts into one document. When the merge
// request itself fails, the drafts are concatenated as-is.
func (g *Generator) recombine(ctx context.Context, template string, drafts []string) (string, vendors.Usage) {
	var joined strings.Builder
	for i, draft := range drafts {
		fmt.Fprintf(&joined, "--- Draft %d ---\n\n%s\n\n", i+1, draft)
	}

	resp, err := g.completeWithRetry(ctx, vendors.CompletionOptions{
		SystemPrompt: renderPrompt(recombineSystemPrompt, map[string]string{"TEMPLATE": template}),
		Prompt:       renderPrompt(recombineUserPrompt, map[string]string{"DRAFTS": joined.String()}),
		Temperature:  0.3,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("recombination failed, concatenating drafts")
		return strings.TrimSpace(strings.Join(drafts, "\n\n")), vendors.Usage{}
	}

	return resp.Content, resp.Usage
}

// completeWithRetry retries failed completions with a fixed backoff
func (g *Generator) completeWithRetry(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.retryBackoff):
			}
			logger.Debug().Int("attempt", attempt+1).Msg("retrying completion")
		}

		resp, err := g.llm.Complete(ctx, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}
