package script

import (
	"context"
	"regexp"
	"strings"

	"github.com/Sgt-cod/youtube-automation-news/internal/strutil"
)

// Segment is a narration slice with its time window, used to synchronize
// visual media with the audio track.
type Segment struct {
	Text     string   `json:"texto"`
	Start    float64  `json:"inicio"`
	Duration float64  `json:"duracao"`
	Keywords []string `json:"keywords"`
}

var sentenceSplit = regexp.MustCompile(`[.!?]\s+`)

// Segmentize splits the narration on sentence boundaries and assigns each
// segment a time window proportional to its word count within the total
// audio duration. Keywords come from the generator (LLM) per segment.
func (g *Generator) Segmentize(ctx context.Context, narration string, audioSeconds float64) []Segment {
	parts := sentenceSplit.Split(narration, -1)
	var sentences []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 20 {
			sentences = append(sentences, p)
		}
	}
	if len(sentences) == 0 || audioSeconds <= 0 {
		return nil
	}

	totalWords := len(strings.Fields(narration))
	if totalWords == 0 {
		return nil
	}
	wordsPerSecond := float64(totalWords) / audioSeconds

	segments := make([]Segment, 0, len(sentences))
	current := 0.0
	for _, sentence := range sentences {
		wordCount := len(strings.Fields(sentence))
		duration := float64(wordCount) / wordsPerSecond

		segments = append(segments, Segment{
			Text:     strutil.TruncateUTF8(sentence, 50),
			Start:    current,
			Duration: duration,
			Keywords: g.ExtractKeywords(ctx, sentence),
		})
		current += duration
	}
	return segments
}
