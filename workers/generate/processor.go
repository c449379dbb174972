package generate

import (
	"context"
	"fmt"
	"os"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/extract"
	"github.com/plugnplai/relnotes/notes"
	"github.com/plugnplai/relnotes/vendors"
)

// Processor turns one uploaded file into a stored release. It is shared
// by the background worker and the synchronous generation endpoint.
type Processor struct {
	llm       *vendors.OpenAIClient
	meili     *vendors.MeiliClient
	generator *notes.Generator

	maxDocumentBytes int64
	maxMediaBytes    int64
}

// NewProcessor creates a processor backed by the given clients
func NewProcessor(llm *vendors.OpenAIClient, meili *vendors.MeiliClient) (*Processor, error) {
	generator, err := notes.NewGenerator(llm, notes.GeneratorOptions{})
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	return &Processor{
		llm:              llm,
		meili:            meili,
		generator:        generator,
		maxDocumentBytes: cfg.MaxDocumentBytes,
		maxMediaBytes:    cfg.MaxMediaBytes,
	}, nil
}

// ProcessFile extracts or transcribes the file, generates release notes,
// and persists the release. userID may be nil for anonymous generation.
func (p *Processor) ProcessFile(ctx context.Context, userID *string, filename, sourcePath string) (*db.Release, error) {
	transcript, err := p.Transcript(ctx, filename, sourcePath)
	if err != nil {
		return nil, err
	}

	return p.ProcessTranscript(ctx, userID, filename, transcript)
}

// Transcript produces plain text from a source file. Documents are
// extracted directly, media files go through speech-to-text.
func (p *Processor) Transcript(ctx context.Context, filename, sourcePath string) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("source file not accessible: %w", err)
	}

	if extract.IsMediaFile(filename) {
		if info.Size() > p.maxMediaBytes {
			return "", fmt.Errorf("media file exceeds %d byte limit", p.maxMediaBytes)
		}
		return p.llm.Transcribe(ctx, sourcePath)
	}

	if info.Size() > p.maxDocumentBytes {
		return "", fmt.Errorf("document exceeds %d byte limit", p.maxDocumentBytes)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}

	return extract.Text(filename, data)
}

// ProcessTranscript generates release notes from already extracted text
// and persists the release
func (p *Processor) ProcessTranscript(ctx context.Context, userID *string, filename, transcript string) (*db.Release, error) {
	result, err := p.generator.Generate(ctx, transcript)
	if err != nil {
		return nil, err
	}

	release := &db.Release{
		UserID:           userID,
		Filename:         filename,
		Transcript:       transcript,
		Notes:            result.Notes,
		Model:            result.Model,
		ChunkCount:       result.ChunkCount,
		DroppedChunks:    result.DroppedChunks,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
	}

	if err := db.CreateRelease(release); err != nil {
		return nil, fmt.Errorf("failed to store release: %w", err)
	}

	// Search indexing is best effort
	if err := p.meili.IndexRelease(release); err != nil {
		logger.Warn().Err(err).Str("release", release.ID).Msg("failed to index release")
	}

	return release, nil
}
