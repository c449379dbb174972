package notes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// Chunk represents a single chunk of transcript text. Start and End are
// rune offsets of the covered span in the source text, including the
// overlap region.
type Chunk struct {
	Index      int
	Count      int
	Text       string
	Start      int
	End        int
	TokenCount int
	WordCount  int
}

// Chunker splits transcripts into token-bounded chunks.
// Boundaries prefer markdown headings, then paragraphs, then sentences,
// then whitespace; token counts come from the GPT-4o BPE encoding.
type Chunker struct {
	enc           tokenizer.Codec
	targetTokens  int
	overlapTokens int
}

// NewChunker creates a chunker with the given target and overlap token sizes
func NewChunker(targetTokens, overlapTokens int) (*Chunker, error) {
	if targetTokens <= 0 {
		targetTokens = 3000
	}
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		overlapTokens = targetTokens / 20
	}

	enc, err := tokenizer.ForModel(tokenizer.GPT4o)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer: %w", err)
	}

	return &Chunker{
		enc:           enc,
		targetTokens:  targetTokens,
		overlapTokens: overlapTokens,
	}, nil
}

// CountTokens returns the token count of text
func (c *Chunker) CountTokens(text string) int {
	ids, _, err := c.enc.Encode(text)
	if err != nil {
		// Fall back to the rough 4 chars/token estimate
		return (len(text) + 3) / 4
	}
	return len(ids)
}

// Split breaks text into chunks of at most targetTokens tokens with
// overlapTokens of context carried between consecutive chunks
func (c *Chunker) Split(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	totalTokens := c.CountTokens(text)
	if totalTokens <= c.targetTokens {
		return []Chunk{{
			Index:      0,
			Count:      1,
			Text:       text,
			End:        len([]rune(text)),
			TokenCount: totalTokens,
			WordCount:  len(strings.Fields(text)),
		}}
	}

	runes := []rune(text)
	textLen := len(runes)

	// Chars-per-token ratio measured on this text, used to map the token
	// budget onto rune positions before boundary search
	charsPerToken := float64(textLen) / float64(totalTokens)
	if charsPerToken < 1 {
		charsPerToken = 1
	}
	targetChars := int(float64(c.targetTokens) * charsPerToken)
	overlapChars := int(float64(c.overlapTokens) * charsPerToken)

	var chunks []Chunk
	currentPosition := 0
	chunkIndex := 0

	for currentPosition < textLen {
		chunkEnd := currentPosition + targetChars
		if chunkEnd >= textLen {
			chunkEnd = textLen
		} else {
			chunkEnd = findBoundary(runes, chunkEnd)
		}

		// A chunk may still exceed the token budget when the measured
		// ratio underestimates locally, which happens to the remainder
		// too when the tail is denser than the text average; shrink
		// until it fits and let the loop pick up what is cut off
		for chunkEnd > currentPosition+1 &&
			c.CountTokens(string(runes[currentPosition:chunkEnd])) > c.targetTokens {
			excess := chunkEnd - currentPosition
			chunkEnd = findBoundary(runes, currentPosition+excess*9/10)
			if chunkEnd >= currentPosition+excess {
				chunkEnd = currentPosition + excess*9/10
			}
		}

		chunkText := strings.TrimSpace(string(runes[currentPosition:chunkEnd]))
		if chunkText != "" {
			chunks = append(chunks, Chunk{
				Index:      chunkIndex,
				Text:       chunkText,
				Start:      currentPosition,
				End:        chunkEnd,
				TokenCount: c.CountTokens(chunkText),
				WordCount:  len(strings.Fields(chunkText)),
			})
			chunkIndex++
		}

		if chunkEnd >= textLen {
			break
		}

		next := chunkEnd - overlapChars
		if next <= currentPosition {
			next = currentPosition + 1
		}
		currentPosition = next
	}

	for i := range chunks {
		chunks[i].Count = len(chunks)
	}

	return chunks
}

var (
	headingPattern    = regexp.MustCompile(`\n#{1,6}\s+`)
	paragraphPattern  = regexp.MustCompile(`\n\n+`)
	sentencePattern   = regexp.MustCompile(`[.!?]\s+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// findBoundary picks the best split position near targetPosition.
// Priority: markdown heading > paragraph break > sentence end > whitespace.
func findBoundary(runes []rune, targetPosition int) int {
	searchWindow := 800
	start := maxInt(0, targetPosition-searchWindow)
	end := minInt(len(runes), targetPosition+searchWindow)

	searchText := string(runes[start:end])

	byteToRunePos := func(bytePos int) int {
		return start + len([]rune(searchText[:bytePos]))
	}

	type candidate struct {
		pattern *regexp.Regexp
		skip    int
	}
	for _, cand := range []candidate{
		{headingPattern, 1},
		{paragraphPattern, 2},
		{sentencePattern, 2},
		{whitespacePattern, 1},
	} {
		matches := cand.pattern.FindAllStringIndex(searchText, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		if last[0] > len(searchText)/2 {
			return byteToRunePos(last[0] + cand.skip)
		}
	}

	return targetPosition
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
