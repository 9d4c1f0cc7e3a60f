package segment

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateAtBoundary(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "short text is returned unchanged",
			text:     "Hello world.",
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if result != "Hello world." {
					t.Errorf("expected passthrough, got %q", result)
				}
			},
		},
		{
			name:     "empty text is returned unchanged",
			text:     "",
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if result != "" {
					t.Errorf("expected empty, got %q", result)
				}
			},
		},
		{
			name:     "cuts at the last sentence end",
			text:     strings.Repeat("a", 400) + ". The quick brown fox jumped over the lazy dog. " + strings.Repeat("b", 200),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if !strings.HasSuffix(result, "dog.") {
					t.Errorf("expected cut after sentence, got %q", result[max(0, len(result)-40):])
				}
			},
		},
		{
			name:     "question marks end sentences",
			text:     strings.Repeat("a", 400) + ". Is this a question? " + strings.Repeat("x", 200),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if !strings.HasSuffix(result, "question?") {
					t.Errorf("expected cut after question, got %q", result[max(0, len(result)-40):])
				}
			},
		},
		{
			name:     "abbreviations are not sentence ends",
			text:     strings.Repeat("a", 380) + ". The visit of Dr. Smith ended well indeed. Dr. " + strings.Repeat("b", 200),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if !strings.HasSuffix(result, "indeed.") {
					t.Errorf("expected cut after the real sentence, got %q", result[max(0, len(result)-40):])
				}
			},
		},
		{
			name:     "initials are not sentence ends",
			text:     strings.Repeat("a", 380) + ". Policy in the U.S. shifted over the decade there. U.S. " + strings.Repeat("b", 200),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if !strings.HasSuffix(result, "there.") {
					t.Errorf("expected cut after the real sentence, got %q", result[max(0, len(result)-40):])
				}
			},
		},
		{
			name:     "paragraph break fallback",
			text:     strings.Repeat("x", 400) + "\n\n" + strings.Repeat("y", 400),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if strings.Contains(result, "y") {
					t.Errorf("expected cut at paragraph break, got %q", result[max(0, len(result)-40):])
				}
			},
		},
		{
			name:     "heading fallback",
			text:     strings.Repeat("x", 400) + "\n# Heading\n" + strings.Repeat("y", 400),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if strings.Contains(result, "Heading") {
					t.Errorf("expected cut before heading, got %q", result)
				}
			},
		},
		{
			name:     "word boundary fallback",
			text:     strings.Repeat("word ", 200),
			maxChars: 503,
			check: func(t *testing.T, result string) {
				if strings.HasSuffix(result, "wor") || strings.HasSuffix(result, "wo") {
					t.Errorf("expected cut at a word boundary, got %q", result[max(0, len(result)-10):])
				}
			},
		},
		{
			name:     "single long word cuts at limit",
			text:     strings.Repeat("a", 1000),
			maxChars: 500,
			check: func(t *testing.T, result string) {
				if len(result) != 500 {
					t.Errorf("expected 500 bytes, got %d", len(result))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateAtBoundary(tt.text, tt.maxChars)
			if len(result) > tt.maxChars {
				t.Errorf("result is %d bytes, limit was %d", len(result), tt.maxChars)
			}
			if !utf8.ValidString(result) {
				t.Error("result is not valid UTF-8")
			}
			tt.check(t, result)
		})
	}
}

func TestTruncateAtBoundaryMultiByte(t *testing.T) {
	text := strings.Repeat("🌍", 200) // 800 bytes
	result := TruncateAtBoundary(text, 500)
	if !utf8.ValidString(result) {
		t.Fatal("result splits a multi-byte rune")
	}
	if len(result) > 500 {
		t.Errorf("result is %d bytes, limit was 500", len(result))
	}
}

func TestChunkText(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		text := "Hello world. This is short."
		chunks := ChunkText(text, 2000, 200)
		if len(chunks) != 1 || chunks[0] != text {
			t.Errorf("expected single passthrough chunk, got %v", chunks)
		}
	})

	t.Run("empty text is a single empty chunk", func(t *testing.T) {
		chunks := ChunkText("", 2000, 200)
		if len(chunks) != 1 || chunks[0] != "" {
			t.Errorf("expected single empty chunk, got %v", chunks)
		}
	})

	t.Run("chunks end at sentence boundaries", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 20; i++ {
			sb.WriteString("This is a sentence with a reasonable number of padding words in it. ")
		}
		chunks := ChunkText(sb.String(), 300, 50)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, chunk := range chunks[:len(chunks)-1] {
			if !strings.HasSuffix(strings.TrimRight(chunk, " "), ".") {
				t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk[max(0, len(chunk)-30):])
			}
		}
	})

	t.Run("no chunk exceeds the chunk size", func(t *testing.T) {
		text := strings.Repeat("word ", 1000)
		chunks := ChunkText(text, 500, 50)
		for i, chunk := range chunks {
			if len(chunk) > 500 {
				t.Errorf("chunk %d is %d bytes", i, len(chunk))
			}
		}
	})

	t.Run("every byte of input is covered", func(t *testing.T) {
		// Distinct sentences so each chunk has a unique alignment.
		var sb strings.Builder
		for i := 0; i < 50; i++ {
			sb.WriteString("Sentence number ")
			sb.WriteString(strings.Repeat("x", i%7))
			sb.WriteString(strings.Repeat("abcdefghij"[i%10:i%10+1], 3))
			sb.WriteString(" goes here to fill line ")
			sb.WriteString(strings.Repeat("y", i%5))
			sb.WriteString(". ")
		}
		text := sb.String()
		chunks := ChunkText(text, 400, 80)

		// Walk the chunks: each must start at or before the end of the
		// previous one, and the final chunk must reach the end of input.
		offset := 0
		searchFrom := 0
		for i, chunk := range chunks {
			idx := strings.Index(text[searchFrom:], chunk)
			if idx < 0 {
				t.Fatalf("chunk %d not found in input after offset %d", i, searchFrom)
			}
			start := searchFrom + idx
			if start > offset {
				t.Fatalf("gap before chunk %d: previous end %d, next start %d", i, offset, start)
			}
			offset = start + len(chunk)
			searchFrom = start + 1
		}
		if offset != len(text) {
			t.Errorf("chunks cover %d of %d bytes", offset, len(text))
		}
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 40; i++ {
			sb.WriteString("Some repeated filler sentence with enough words to matter. ")
		}
		chunks := ChunkText(sb.String(), 400, 80)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i := 0; i < len(chunks)-1; i++ {
			tail := chunks[i][max(0, len(chunks[i])-20):]
			if !strings.Contains(chunks[i+1], strings.TrimSpace(tail)) {
				// Overlap may be shortened by boundary adjustment, but the
				// next chunk must share the end of the previous one.
				t.Errorf("chunk %d and %d do not overlap", i, i+1)
			}
		}
	})

	t.Run("multi-byte runes are never split", func(t *testing.T) {
		text := strings.Repeat("概念の抽出と可視化。", 200)
		chunks := ChunkText(text, 500, 100)
		for i, chunk := range chunks {
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d splits a rune", i)
			}
		}
	})
}
