package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const microsoftOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

// MicrosoftEngine calls the Azure Cognitive Services neural TTS REST
// endpoint with an SSML document.
type MicrosoftEngine struct {
	Region          string
	SubscriptionKey string
	Voice           string

	HTTP *http.Client
}

func NewMicrosoftEngine(region, key, voice string) *MicrosoftEngine {
	if strings.TrimSpace(voice) == "" {
		voice = "pt-BR-FranciscaNeural"
	}
	return &MicrosoftEngine{
		Region:          strings.TrimSpace(region),
		SubscriptionKey: strings.TrimSpace(key),
		Voice:           voice,
		HTTP:            &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *MicrosoftEngine) Name() string { return "microsoft-neural" }

func (e *MicrosoftEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if e.SubscriptionKey == "" {
		return fmt.Errorf("microsoft tts: missing subscription key")
	}

	lang := voiceLanguage(e.Voice)
	ssml := fmt.Sprintf(
		`<speak version="1.0" xml:lang="%s"><voice name="%s"><prosody rate="+0%%" pitch="+0Hz">%s</prosody></voice></speak>`,
		lang, e.Voice, escapeXML(text),
	)

	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", e.Region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(ssml))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", microsoftOutputFormat)
	req.Header.Set("Ocp-Apim-Subscription-Key", e.SubscriptionKey)

	httpClient := e.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("microsoft tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("microsoft tts: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}

func voiceLanguage(voice string) string {
	// Voice names embed the locale prefix: pt-BR-FranciscaNeural.
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "pt-BR"
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	).Replace(s)
}
