package notes

import (
	"strings"
	"testing"
)

func TestChunkerShortText(t *testing.T) {
	c, err := NewChunker(3000, 150)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	chunks := c.Split("A short release transcript.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Count != 1 {
		t.Errorf("chunk metadata = index %d count %d", chunks[0].Index, chunks[0].Count)
	}
	if chunks[0].TokenCount <= 0 {
		t.Errorf("TokenCount = %d, want > 0", chunks[0].TokenCount)
	}
}

func TestChunkerEmptyText(t *testing.T) {
	c, err := NewChunker(3000, 150)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	if chunks := c.Split("   \n\n  "); chunks != nil {
		t.Errorf("expected nil for blank text, got %d chunks", len(chunks))
	}
}

func TestChunkerLongText(t *testing.T) {
	c, err := NewChunker(200, 20)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	// ~40 paragraphs, far beyond 200 tokens total
	paragraph := "The shift planning module now synchronizes bookings with the vendor system. " +
		"Removing an employee also removes their planned shifts automatically."
	text := strings.Repeat(paragraph+"\n\n", 40)

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for _, chunk := range chunks {
		if chunk.TokenCount > 200 {
			t.Errorf("chunk %d has %d tokens, want <= 200", chunk.Index, chunk.TokenCount)
		}
		if chunk.Count != len(chunks) {
			t.Errorf("chunk %d Count = %d, want %d", chunk.Index, chunk.Count, len(chunks))
		}
		if strings.TrimSpace(chunk.Text) == "" {
			t.Errorf("chunk %d is blank", chunk.Index)
		}
	}

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk at position %d has Index %d", i, chunk.Index)
		}
		if chunk.WordCount <= 0 {
			t.Errorf("chunk %d WordCount = %d, want > 0", i, chunk.WordCount)
		}
		if chunk.End <= chunk.Start {
			t.Errorf("chunk %d span [%d, %d) is empty", i, chunk.Start, chunk.End)
		}
		if i > 0 && chunk.Start >= chunks[i-1].End {
			t.Errorf("chunk %d starts at %d after previous end %d, input not covered",
				i, chunk.Start, chunks[i-1].End)
		}
	}
	if chunks[len(chunks)-1].End != len([]rune(strings.TrimSpace(text))) {
		t.Errorf("last chunk ends at %d, want end of input", chunks[len(chunks)-1].End)
	}
}

func TestChunkerMixedDensityTail(t *testing.T) {
	c, err := NewChunker(100, 10)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	// English prose followed by Japanese, which carries far more tokens
	// per rune. The global ratio underestimates the tail, so every chunk
	// must still be measured against the budget
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("The reporting dashboard gained a new export format for weekly summaries. ")
	}
	for i := 0; i < 60; i++ {
		sb.WriteString("リリースノートの生成処理は音声の文字起こしと要約の両方を自動化します。")
	}
	text := sb.String()

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for _, chunk := range chunks {
		if chunk.TokenCount > 100 {
			t.Errorf("chunk %d/%d has %d tokens, want <= 100",
				chunk.Index, chunk.Count, chunk.TokenCount)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != len([]rune(strings.TrimSpace(text))) {
		t.Errorf("last chunk ends at %d, want end of input", last.End)
	}
}

func TestChunkerCoversWholeText(t *testing.T) {
	c, err := NewChunker(150, 15)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("Sentence number ")
		sb.WriteString(strings.Repeat("x", i%7+1))
		sb.WriteString(" describes another product change. ")
	}
	text := sb.String()

	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Overlap means chunk boundaries share text; the last chunk must still
	// reach the end of the input
	last := chunks[len(chunks)-1].Text
	tail := strings.TrimSpace(text)
	if !strings.HasSuffix(tail, strings.TrimSpace(last[len(last)/2:])) {
		t.Error("last chunk does not end at the end of the input")
	}
}

func TestCountTokens(t *testing.T) {
	c, err := NewChunker(3000, 150)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	if got := c.CountTokens(""); got != 0 {
		t.Errorf("CountTokens(\"\") = %d, want 0", got)
	}

	short := c.CountTokens("hello")
	long := c.CountTokens("hello world, this is a considerably longer sentence about releases")
	if short <= 0 || long <= short {
		t.Errorf("token counts not increasing: short=%d long=%d", short, long)
	}
}
