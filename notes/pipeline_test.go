package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/plugnplai/relnotes/vendors"
)

// fakeLLM is a scriptable Completer for pipeline tests
type fakeLLM struct {
	mu       sync.Mutex
	calls    int
	failures int32
	respond  func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error)
}

func (f *fakeLLM) Complete(ctx context.Context, opts vendors.CompletionOptions) (*vendors.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.respond(opts, call)
}

func (f *fakeLLM) Model() string { return "fake-model" }

func okResponse(content string) (*vendors.CompletionResponse, error) {
	return &vendors.CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Usage:        vendors.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func testOptions(template string) GeneratorOptions {
	return GeneratorOptions{
		TargetTokens:  150,
		OverlapTokens: 15,
		Concurrency:   2,
		MaxRetries:    2,
		RetryBackoff:  time.Millisecond,
		Template:      template,
	}
}

func longTranscript() string {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "Feature %d changed how assignments are terminated in the vendor platform. ", i)
		sb.WriteString("Previously this required manual cleanup in two systems.\n\n")
	}
	return sb.String()
}

func TestGenerateSingleChunk(t *testing.T) {
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			if !strings.Contains(opts.SystemPrompt, "MY TEMPLATE") {
				t.Error("system prompt missing template content")
			}
			if !strings.Contains(opts.Prompt, "short transcript") {
				t.Error("user prompt missing transcript")
			}
			return okResponse("## Point 1: Feature")
		},
	}

	g, err := NewGenerator(llm, testOptions("MY TEMPLATE"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	result, err := g.Generate(context.Background(), "A short transcript about one feature.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Notes != "## Point 1: Feature" {
		t.Errorf("Notes = %q", result.Notes)
	}
	if result.ChunkCount != 1 || result.DroppedChunks != 0 {
		t.Errorf("ChunkCount = %d, DroppedChunks = %d", result.ChunkCount, result.DroppedChunks)
	}
	if result.Model != "fake-model" {
		t.Errorf("Model = %q", result.Model)
	}
	if result.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", result.Usage.TotalTokens)
	}
	if llm.calls != 1 {
		t.Errorf("calls = %d, want 1", llm.calls)
	}
}

func TestGenerateEmptyTranscript(t *testing.T) {
	llm := &fakeLLM{respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
		return okResponse("unused")
	}}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if _, err := g.Generate(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestGenerateMultiChunkRecombines(t *testing.T) {
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			if strings.Contains(opts.SystemPrompt, "partial release notes drafts") {
				if !strings.Contains(opts.Prompt, "--- Draft 1 ---") {
					t.Error("merge prompt missing draft markers")
				}
				return okResponse("MERGED NOTES")
			}
			return okResponse(fmt.Sprintf("draft-%d", call))
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	result, err := g.Generate(context.Background(), longTranscript())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.Notes != "MERGED NOTES" {
		t.Errorf("Notes = %q, want merged output", result.Notes)
	}
	if result.ChunkCount < 2 {
		t.Errorf("ChunkCount = %d, want >= 2", result.ChunkCount)
	}
	// one call per chunk plus the merge
	if llm.calls != result.ChunkCount+1 {
		t.Errorf("calls = %d, want %d", llm.calls, result.ChunkCount+1)
	}
	wantTokens := 15 * (result.ChunkCount + 1)
	if result.Usage.TotalTokens != wantTokens {
		t.Errorf("TotalTokens = %d, want %d", result.Usage.TotalTokens, wantTokens)
	}
}

func TestGenerateRetriesTransientFailure(t *testing.T) {
	var failed int32
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			if atomic.CompareAndSwapInt32(&failed, 0, 1) {
				return nil, errors.New("rate limited")
			}
			return okResponse("NOTES")
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	result, err := g.Generate(context.Background(), "One short transcript.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Notes != "NOTES" {
		t.Errorf("Notes = %q", result.Notes)
	}
	if llm.calls != 2 {
		t.Errorf("calls = %d, want 2 (one failure, one retry)", llm.calls)
	}
}

func TestGenerateSingleChunkExhaustsRetries(t *testing.T) {
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			return nil, errors.New("upstream down")
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	_, err = g.Generate(context.Background(), "One short transcript.")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	// initial attempt plus MaxRetries
	if llm.calls != 3 {
		t.Errorf("calls = %d, want 3", llm.calls)
	}
}

func TestGenerateDropsFailedChunks(t *testing.T) {
	// The first chunk request fails on every attempt; the rest succeed
	llm := &fakeLLM{}
	llm.respond = func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
		if strings.Contains(opts.SystemPrompt, "partial release notes drafts") {
			return okResponse("MERGED")
		}
		if strings.Contains(opts.Prompt, "This is part 1 of") {
			atomic.AddInt32(&llm.failures, 1)
			return nil, errors.New("persistent failure")
		}
		return okResponse("draft")
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	result, err := g.Generate(context.Background(), longTranscript())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if result.DroppedChunks != 1 {
		t.Errorf("DroppedChunks = %d, want 1", result.DroppedChunks)
	}
	if result.Notes != "MERGED" {
		t.Errorf("Notes = %q", result.Notes)
	}
	if atomic.LoadInt32(&llm.failures) != 3 {
		t.Errorf("failing chunk attempted %d times, want 3", llm.failures)
	}
}

func TestGenerateAllChunksFail(t *testing.T) {
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			return nil, errors.New("everything is down")
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if _, err := g.Generate(context.Background(), longTranscript()); err == nil {
		t.Fatal("expected error when every chunk fails")
	}
}

func TestGenerateRecombineFallsBackToConcat(t *testing.T) {
	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			if strings.Contains(opts.SystemPrompt, "partial release notes drafts") {
				return nil, errors.New("merge failed")
			}
			return okResponse("a chunk draft")
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	result, err := g.Generate(context.Background(), longTranscript())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.Contains(result.Notes, "a chunk draft") {
		t.Errorf("fallback notes missing drafts: %q", result.Notes)
	}
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &fakeLLM{
		respond: func(opts vendors.CompletionOptions, call int) (*vendors.CompletionResponse, error) {
			return nil, ctx.Err()
		},
	}

	g, err := NewGenerator(llm, testOptions("T"))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if _, err := g.Generate(ctx, "One short transcript."); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
