package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const translateChunkLimit = 200

// TranslateEngine is the lower-quality fallback: the public Google
// Translate speech endpoint. It only accepts short inputs, so the text
// is chunked on word boundaries and the MP3 payloads concatenated.
// MPEG frames are self-delimiting, so plain concatenation plays fine.
type TranslateEngine struct {
	Lang string

	HTTP *http.Client
}

func NewTranslateEngine(lang string) *TranslateEngine {
	if strings.TrimSpace(lang) == "" {
		lang = "pt-BR"
	}
	return &TranslateEngine{
		Lang: lang,
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *TranslateEngine) Name() string { return "google-translate" }

func (e *TranslateEngine) Synthesize(ctx context.Context, text, outPath string) error {
	chunks := chunkText(text, translateChunkLimit)
	if len(chunks) == 0 {
		return fmt.Errorf("translate tts: empty text")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer out.Close()

	for i, chunk := range chunks {
		if err := e.fetchChunk(ctx, chunk, out); err != nil {
			return fmt.Errorf("translate tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (e *TranslateEngine) fetchChunk(ctx context.Context, text string, out io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", e.Lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://translate.google.com/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	httpClient := e.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

// chunkText splits text into pieces of at most limit bytes, cutting on
// word boundaries. A single oversized word becomes its own chunk.
func chunkText(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder
	for _, w := range words {
		if current.Len() > 0 && current.Len()+1+len(w) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(w)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
