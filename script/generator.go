package script

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Sgt-cod/youtube-automation-news/internal/jsonutil"
	"github.com/Sgt-cod/youtube-automation-news/internal/strutil"
	"github.com/Sgt-cod/youtube-automation-news/llm"
	"github.com/Sgt-cod/youtube-automation-news/news"
)

const shortTargetWords = 120

// TitleInfo is the model's answer when turning a generic theme into a
// specific video title with search keywords.
type TitleInfo struct {
	Title    string   `json:"titulo"`
	Keywords []string `json:"keywords"`
}

type Generator struct {
	Client llm.Client
	Model  string

	// Persona, when set, overrides the journalistic prompt entirely.
	Persona *Persona

	log *slog.Logger
}

func NewGenerator(client llm.Client, model string, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{Client: client, Model: model, log: log}
}

// SpecificTitle asks the model for a concrete title plus English search
// keywords for a generic theme. Falls back to the theme itself when the
// model's answer cannot be parsed.
func (g *Generator) SpecificTitle(ctx context.Context, theme string) TitleInfo {
	fallback := TitleInfo{
		Title:    theme,
		Keywords: []string{"politics", "news", "brazil", "government", "congress"},
	}

	prompt := fmt.Sprintf(`Baseado no tema %q, crie um título ESPECÍFICO e palavras-chave.

Retorne APENAS JSON: {"titulo": "título aqui", "keywords": ["palavra1", "palavra2", "palavra3", "palavra4", "palavra5"]}`, theme)

	res, err := g.Client.Chat(ctx, llm.Request{
		Model:     g.Model,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		ForceJSON: true,
	})
	if err != nil {
		g.log.Warn("title generation failed, using theme", "error", err)
		return fallback
	}

	var info TitleInfo
	if err := jsonutil.DecodeWithFallback(res.Text, &info); err != nil || strings.TrimSpace(info.Title) == "" {
		g.log.Warn("title response unparseable, using theme", "error", err)
		return fallback
	}
	if len(info.Keywords) == 0 {
		info.Keywords = fallback.Keywords
	}
	return info
}

// Narration generates the narration script. kind is "short" or "long";
// item carries the news headline when the channel runs on RSS.
func (g *Generator) Narration(ctx context.Context, kind, title string, longMinutes int, item *news.Item) (string, error) {
	words := shortTargetWords
	duration := "30-60 segundos"
	if kind != "short" {
		if longMinutes <= 0 {
			longMinutes = 10
		}
		words = longMinutes * 150
		duration = fmt.Sprintf("%d minutos", longMinutes)
	}

	var prompt string
	switch {
	case g.Persona != nil:
		prompt = personaPrompt(g.Persona, title, duration, words)
	case item != nil:
		prompt = newsPrompt(title, item.Summary, kind, duration, words)
	default:
		prompt = genericPrompt(title, kind, duration, words)
	}

	res, err := g.Client.Chat(ctx, llm.Request{
		Model:    g.Model,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("generate narration: %w", err)
	}

	text := CleanNarration(res.Text)
	if text == "" {
		return "", fmt.Errorf("generate narration: empty script")
	}
	return text, nil
}

// ExtractKeywords asks for 3-5 English media-search keywords for one
// narration segment. On any failure it falls back to the longest words
// of the segment itself.
func (g *Generator) ExtractKeywords(ctx context.Context, segment string) []string {
	excerpt := strutil.TruncateUTF8(segment, 200)
	prompt := fmt.Sprintf(`Extraia 3-5 palavras-chave em INGLÊS para buscar imagens/vídeos sobre POLÍTICA BRASILEIRA:

%q

Retorne APENAS palavras separadas por vírgula.
Exemplo: politics, congress, brazil, government, president`, excerpt)

	res, err := g.Client.Chat(ctx, llm.Request{
		Model:    g.Model,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return fallbackKeywords(segment)
	}
	var keywords []string
	for _, k := range strings.Split(res.Text, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return fallbackKeywords(segment)
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}

func fallbackKeywords(segment string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(segment)) {
		if len(w) > 4 {
			out = append(out, w)
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}

var (
	asteriskRuns = regexp.MustCompile(`\*+`)
	headingMarks = regexp.MustCompile(`#+\s`)
	leadingDash  = regexp.MustCompile(`(?m)^-\s`)
)

// CleanNarration strips markdown leftovers the model tends to emit even
// when told not to.
func CleanNarration(text string) string {
	text = asteriskRuns.ReplaceAllString(text, "")
	text = headingMarks.ReplaceAllString(text, "")
	text = leadingDash.ReplaceAllString(text, "")
	text = strings.NewReplacer("*", "", "#", "", "_", "").Replace(text)
	return strings.TrimSpace(text)
}

func newsPrompt(title, summary, kind, duration string, words int) string {
	opening := "semana"
	if kind == "short" {
		opening = "terça-feira"
	}
	return fmt.Sprintf(`Crie um script JORNALÍSTICO sobre: %s

Resumo da notícia: %s

REGRAS IMPORTANTES:
- %s de duração, aproximadamente %d palavras
- Tom: noticioso, imparcial, informativo
- Comece direto na notícia (ex: "Nesta %s,...")
- NÃO mencione "apresentador", "reportagem", "matéria", "slides"
- NÃO use frases como "vamos ver", "como podem ver na tela"
- Fale diretamente sobre os fatos
- Para SHORTS: seja direto e objetivo
- Para LONGS: desenvolva contexto e repercussões
- Texto corrido para narração
- SEM formatação, asteriscos ou marcadores
- SEM emojis

Escreva APENAS o roteiro de narração.`, title, summary, duration, words, opening)
}

func genericPrompt(title, kind, duration string, words int) string {
	if kind == "short" {
		return fmt.Sprintf(`Crie um script para SHORT sobre: %s

REGRAS IMPORTANTES:
- %d palavras aproximadamente
- Comece com "Você sabia que..." ou "Sabia que..." ou contexto direto
- Tom informativo e envolvente
- NÃO mencione apresentador, slides, ou elementos visuais
- NÃO use frases como "vamos ver", "próximo slide", "na tela"
- Fale diretamente com o espectador
- Texto corrido para narração
- SEM formatação, asteriscos ou marcadores
- SEM emojis

Escreva APENAS o roteiro de narração.`, title, words)
	}
	return fmt.Sprintf(`Crie um script sobre: %s

REGRAS IMPORTANTES:
- %s de duração, aproximadamente %d palavras
- Comece com "Olá!" ou introdução contextual
- Tom informativo e conversacional
- NÃO mencione apresentador, slides, gráficos ou elementos visuais
- NÃO use frases como "vamos ver agora", "na próxima parte", "como vocês podem ver"
- Fale naturalmente como se estivesse explicando a notícia
- Divida o conteúdo em pequenos parágrafos naturais
- Texto corrido para narração
- SEM formatação, asteriscos ou marcadores
- SEM emojis
- Finalize com chamada para inscrição no canal

Escreva APENAS o roteiro de narração.`, title, duration, words)
}

func personaPrompt(p *Persona, title, duration string, words int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nScript sobre: %s\n\n", p.Prompt, title)
	if p.Opening != "" {
		fmt.Fprintf(&b, "- Comece: %q\n", p.Opening)
	}
	if len(p.Tone) > 0 {
		fmt.Fprintf(&b, "- Tom: %s\n", strings.Join(p.Tone, ", "))
	}
	if p.Closing != "" {
		fmt.Fprintf(&b, "- Finalize: %q\n", p.Closing)
	}
	fmt.Fprintf(&b, "- %s, %d palavras, texto puro", duration, words)
	return b.String()
}
