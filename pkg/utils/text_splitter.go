package utils

import "strings"

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 300
	DefaultMinChunkSize = 200

	// A cut candidate earlier than this fraction of the window is ignored.
	minCutRatio = 0.4
)

// TextSegment is one chunk together with its rune offsets [Start, End) in the
// source text.
type TextSegment struct {
	Text  string
	Start int
	End   int
}

type boundaryRule struct {
	marker []rune
	// cut position relative to the match index
	cutOffset int
}

// boundaryLevels lists cut candidates by precedence. Within one level the
// latest qualifying candidate wins; a later level is only consulted when no
// earlier level produced a candidate past the minimum cut.
//
//  1. paragraph break, cut after "\n\n"
//  2. enumerated clause, cut before "[" or "(" that opens a line
//  3. sentence end, cut after the period of ". " or ".\n"
var boundaryLevels = [][]boundaryRule{
	{
		{marker: []rune("\n\n"), cutOffset: 2},
	},
	{
		{marker: []rune("\n["), cutOffset: 1},
		{marker: []rune("\n("), cutOffset: 1},
	},
	{
		{marker: []rune(". "), cutOffset: 1},
		{marker: []rune(".\n"), cutOffset: 1},
	},
}

// SplitText splits text into overlapping chunks aligned to legal document
// boundaries where possible. See SplitSegments for the offsets.
func SplitText(text string, chunkSize, overlap, minSize int) []string {
	segments := SplitSegments(text, chunkSize, overlap, minSize)
	chunks := make([]string, len(segments))
	for i, seg := range segments {
		chunks[i] = seg.Text
	}
	return chunks
}

// SplitSegments scans text with a window of chunkSize runes. Each window is
// cut at the best boundary found searching backward from its end, or hard cut
// at chunkSize. The next window starts overlap runes before the cut and always
// strictly after the previous start. Chunks shorter than minSize are dropped,
// except the final one. minSize is capped at the minimum cut so that a chunk
// ending on a boundary is never dropped and no text goes uncovered.
func SplitSegments(text string, chunkSize, overlap, minSize int) []TextSegment {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	if limit := int(float64(chunkSize) * minCutRatio); minSize > limit {
		minSize = limit
	}

	var segments []TextSegment
	start := 0
	for start < total {
		end := start + chunkSize
		final := end >= total
		if final {
			end = total
		} else {
			end = start + findCut(runes[start:end], chunkSize)
		}

		if final || end-start >= minSize {
			chunk := string(runes[start:end])
			if strings.TrimSpace(chunk) != "" {
				segments = append(segments, TextSegment{Text: chunk, Start: start, End: end})
			}
		}

		if final {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return segments
}

func findCut(window []rune, chunkSize int) int {
	minCut := int(float64(chunkSize) * minCutRatio)

	for _, level := range boundaryLevels {
		best := -1
		for _, rule := range level {
			idx := lastIndexRunes(window, rule.marker)
			if idx < 0 {
				continue
			}
			cut := idx + rule.cutOffset
			if cut >= minCut && cut > best {
				best = cut
			}
		}
		if best > 0 {
			return best
		}
	}

	return len(window)
}

func lastIndexRunes(s, marker []rune) int {
	for i := len(s) - len(marker); i >= 0; i-- {
		matched := true
		for j := range marker {
			if s[i+j] != marker[j] {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}
