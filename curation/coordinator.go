package curation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/media"
	"github.com/Sgt-cod/youtube-automation-news/telegram"
)

var (
	// ErrCancelled means the reviewer aborted the run with /cancelar.
	ErrCancelled = errors.New("curation: review cancelled by reviewer")
	// ErrTimedOut means the review budget elapsed before a terminal
	// decision. The partially reviewed items are still returned.
	ErrTimedOut = errors.New("curation: review timed out")
)

// Transport is the chat surface the coordinator talks through.
// *telegram.Client satisfies it.
type Transport interface {
	SendMessage(ctx context.Context, text string, keyboard *telegram.InlineKeyboardMarkup) (int64, error)
	SendPhoto(ctx context.Context, photoPath, caption string, keyboard *telegram.InlineKeyboardMarkup) (int64, error)
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	NextOffset(ctx context.Context) int64
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DownloadFile(ctx context.Context, fileID, destPath string) error
}

// Coordinator runs one review cycle at a time: it presents candidates,
// polls for reviewer input, folds decisions into the durable record and
// resolves once the record reaches a terminal status.
type Coordinator struct {
	Store  Store
	Thumbs ThumbnailStore
	Bot    Transport
	Audit  AuditSink

	AssetsDir    string
	PollInterval time.Duration
	QuietPeriod  time.Duration

	// SuggestAlternative produces a replacement suggestion when the
	// reviewer rejects the presented media without supplying their own.
	SuggestAlternative func(ctx context.Context, c Candidate) (media.Ref, bool)

	log *slog.Logger

	offset    int64
	lastNudge time.Time
}

func NewCoordinator(store Store, thumbs ThumbnailStore, bot Transport, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		Store:        store,
		Thumbs:       thumbs,
		Bot:          bot,
		PollInterval: 3 * time.Second,
		QuietPeriod:  2 * time.Minute,
		log:          log,
	}
}

// StartReview persists a fresh pending record and sends the opening
// prompt. Updates delivered before this point are skipped so stale
// button presses from an earlier run cannot leak into this one.
func (c *Coordinator) StartReview(ctx context.Context, kind string, items []Candidate) error {
	if len(items) == 0 {
		return fmt.Errorf("start review: no candidates")
	}
	req := NewRequest(kind, items)
	if err := c.Store.Save(ctx, req); err != nil {
		return fmt.Errorf("start review: %w", err)
	}

	c.offset = c.Bot.NextOffset(ctx)
	c.lastNudge = time.Now()
	c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: kind, Event: "review_started", Detail: fmt.Sprintf("%d candidatos", len(items))})

	switch kind {
	case KindTopic:
		c.presentTopics(ctx, &req)
	default:
		msg := fmt.Sprintf(
			"🔍 <b>Curadoria iniciada</b>\n%d itens para revisar.\n\nComandos: /status /pular /retomar /cancelar",
			len(items),
		)
		if _, err := c.Bot.SendMessage(ctx, msg, nil); err != nil {
			c.log.Warn("send review intro failed", "error", err)
		}
		c.presentNext(ctx, &req)
	}
	return c.Store.Save(ctx, req)
}

// AwaitResolution polls until the record leaves the pending state or
// the budget elapses. On timeout the items reviewed so far are returned
// together with ErrTimedOut so the caller can decide whether to proceed
// with defaults.
func (c *Coordinator) AwaitResolution(ctx context.Context, timeout time.Duration) ([]Candidate, error) {
	deadline := time.Now().Add(timeout)
	for {
		req, ok, err := c.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("await resolution: no review in progress")
		}

		switch req.Status {
		case StatusApproved:
			resolved := req.Accepted()
			_ = c.Store.Delete(ctx)
			c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "review_approved"})
			return resolved, nil
		case StatusCancelled:
			_ = c.Store.Delete(ctx)
			c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "review_cancelled"})
			return nil, ErrCancelled
		}

		if time.Now().After(deadline) {
			req.Status = StatusTimedOut
			_ = c.Store.Save(ctx, req)
			if _, err := c.Bot.SendMessage(ctx, "⏰ Tempo de curadoria esgotado. Seguindo com os itens atuais.", nil); err != nil {
				c.log.Warn("send timeout notice failed", "error", err)
			}
			resolved := req.Accepted()
			_ = c.Store.Delete(ctx)
			c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "review_timeout"})
			return resolved, ErrTimedOut
		}

		c.processUpdates(ctx)
		c.maybeNudge(ctx)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval()):
		}
	}
}

// processUpdates drains one batch of updates. The offset advances past
// every delivered update whether or not its handler succeeded, so a
// malformed or failing update can never wedge the loop.
func (c *Coordinator) processUpdates(ctx context.Context) {
	updates, err := c.Bot.GetUpdates(ctx, c.offset)
	if err != nil {
		c.log.Warn("get updates failed", "error", err)
		return
	}
	for _, u := range updates {
		if u.UpdateID >= c.offset {
			c.offset = u.UpdateID + 1
		}
		switch {
		case u.CallbackQuery != nil:
			c.handleCallback(ctx, u)
		case u.Message != nil && len(u.Message.Photo) > 0:
			c.handlePhoto(ctx, u)
		case u.Message != nil:
			c.handleCommand(ctx, u)
		}
	}
}

func (c *Coordinator) handleCommand(ctx context.Context, u telegram.Update) {
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}

	if text == "/pular" && c.skipPendingThumbnail(ctx) {
		return
	}

	req, ok, err := c.Store.Load(ctx)
	if err != nil || !ok || req.Status.Terminal() {
		return
	}

	switch {
	case text == "/cancelar":
		req.Status = StatusCancelled
		if err := c.Store.Save(ctx, req); err != nil {
			c.log.Error("save cancellation failed", "error", err)
			return
		}
		c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "command_cancel", UpdateID: u.UpdateID})
		c.send(ctx, "❌ Curadoria cancelada. Nenhum vídeo será gerado.")

	case text == "/status":
		c.send(ctx, fmt.Sprintf("📊 Progresso: %d/%d itens decididos. Item atual: %d.",
			len(req.Decisions), len(req.Items), req.Cursor+1))

	case text == "/pular":
		req.ApproveRemaining()
		req.Status = StatusApproved
		if err := c.Store.Save(ctx, req); err != nil {
			c.log.Error("save bulk approval failed", "error", err)
			return
		}
		c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "command_bulk_approve", UpdateID: u.UpdateID})
		c.send(ctx, "⏭️ Itens restantes aprovados automaticamente.")

	case text == "/retomar":
		c.presentNext(ctx, &req)
		_ = c.Store.Save(ctx, req)

	case strings.HasPrefix(text, "/substituir_"):
		c.handleSubstitute(ctx, &req, text, u.UpdateID)
	}
}

func (c *Coordinator) handleSubstitute(ctx context.Context, req *Request, text string, updateID int64) {
	rest := strings.TrimPrefix(text, "/substituir_")
	parts := strings.SplitN(rest, " ", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 1 || n > len(req.Items) {
		c.send(ctx, fmt.Sprintf("Uso: /substituir_N novo texto (N entre 1 e %d).", len(req.Items)))
		return
	}
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		c.send(ctx, fmt.Sprintf("Envie o texto de substituição: /substituir_%d novo texto", n))
		return
	}
	idx := n - 1
	req.Replace(idx, Replacement{Text: strings.TrimSpace(parts[1])})
	if req.AllDecided() {
		req.Status = StatusApproved
	}
	if err := c.Store.Save(ctx, *req); err != nil {
		c.log.Error("save substitution failed", "error", err)
		return
	}
	c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "substituted", Index: idx, Decision: DecisionReplaced, UpdateID: updateID})
	c.send(ctx, fmt.Sprintf("✏️ Item %d substituído.", n))
	if req.Status == StatusApproved {
		c.finishApproved(ctx, req)
	} else if req.Kind != KindTopic {
		c.presentNext(ctx, req)
		_ = c.Store.Save(ctx, *req)
	}
}

func (c *Coordinator) handleCallback(ctx context.Context, u telegram.Update) {
	cb := u.CallbackQuery
	if err := c.Bot.AnswerCallback(ctx, cb.ID, ""); err != nil {
		c.log.Debug("answer callback failed", "error", err)
	}

	prefix, idx, ok := splitCallback(cb.Data)
	if !ok {
		return
	}

	req, found, err := c.Store.Load(ctx)
	if err != nil || !found || req.Status.Terminal() {
		return
	}
	if idx < 0 || idx >= len(req.Items) {
		return
	}

	switch prefix {
	case "aprovar":
		req.Decide(idx, DecisionApproved)
		c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "approved", Index: idx, Decision: DecisionApproved, UpdateID: u.UpdateID})
		if req.AllDecided() {
			req.Status = StatusApproved
			_ = c.Store.Save(ctx, req)
			c.finishApproved(ctx, &req)
			return
		}
		c.presentNext(ctx, &req)
		_ = c.Store.Save(ctx, req)

	case "buscar":
		if c.SuggestAlternative == nil {
			c.send(ctx, "Nenhuma alternativa disponível para este item.")
			return
		}
		alt, found := c.SuggestAlternative(ctx, req.Items[idx])
		if !found {
			c.send(ctx, fmt.Sprintf("🔄 Nenhuma alternativa encontrada para o item %d.", idx+1))
			return
		}
		req.Items[idx].Media = alt
		c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "alternative_suggested", Index: idx, UpdateID: u.UpdateID, Detail: alt.Source})
		c.presentNext(ctx, &req)
		_ = c.Store.Save(ctx, req)

	case "foto":
		req.AwaitingUpload = true
		req.UploadIndex = idx
		if err := c.Store.Save(ctx, req); err != nil {
			c.log.Error("save upload flag failed", "error", err)
			return
		}
		c.send(ctx, fmt.Sprintf("📷 Envie a foto para o item %d.", idx+1))

	case "noticia":
		for i := range req.Items {
			if i == idx {
				req.Decisions[i] = DecisionApproved
			} else {
				req.Decisions[i] = DecisionRejected
			}
		}
		req.Cursor = len(req.Items)
		req.Status = StatusApproved
		_ = c.Store.Save(ctx, req)
		c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "topic_selected", Index: idx, Decision: DecisionApproved, UpdateID: u.UpdateID})
		c.send(ctx, fmt.Sprintf("✅ Notícia %d selecionada: %s", idx+1, req.Items[idx].Title))

	case "trocar":
		c.send(ctx, fmt.Sprintf("✏️ Envie o novo título: /substituir_%d novo título", idx+1))
	}
}

func (c *Coordinator) handlePhoto(ctx context.Context, u telegram.Update) {
	photos := u.Message.Photo
	fileID := photos[len(photos)-1].FileID

	if c.Thumbs != nil {
		rec, ok, err := c.Thumbs.LoadThumbnail(ctx)
		if err == nil && ok && rec.Status == StatusPending {
			dest := filepath.Join(c.AssetsDir, "thumbnail_custom.jpg")
			if err := c.Bot.DownloadFile(ctx, fileID, dest); err != nil {
				c.log.Error("download thumbnail failed", "error", err)
				c.send(ctx, "⚠️ Não consegui baixar a imagem. Tente novamente.")
				return
			}
			rec.Status = StatusReceived
			rec.ThumbnailPath = dest
			if err := c.Thumbs.SaveThumbnail(ctx, rec); err != nil {
				c.log.Error("save thumbnail record failed", "error", err)
				return
			}
			c.send(ctx, "🖼️ Thumbnail personalizada recebida.")
			return
		}
	}

	req, ok, err := c.Store.Load(ctx)
	if err != nil || !ok || req.Status.Terminal() || !req.AwaitingUpload {
		return
	}
	idx := req.UploadIndex
	if idx < 0 || idx >= len(req.Items) {
		req.AwaitingUpload = false
		_ = c.Store.Save(ctx, req)
		return
	}

	dest := filepath.Join(c.AssetsDir, fmt.Sprintf("custom_%d.jpg", idx+1))
	if err := c.Bot.DownloadFile(ctx, fileID, dest); err != nil {
		c.log.Error("download custom photo failed", "error", err)
		c.send(ctx, "⚠️ Não consegui baixar a foto. Tente novamente.")
		return
	}

	req.AwaitingUpload = false
	req.Replace(idx, Replacement{Media: media.Ref{Source: dest, Kind: media.KindLocalPhoto}})
	if req.AllDecided() {
		req.Status = StatusApproved
	}
	if err := c.Store.Save(ctx, req); err != nil {
		c.log.Error("save custom photo failed", "error", err)
		return
	}
	c.emit(ctx, AuditEvent{RequestID: req.ID, Kind: req.Kind, Event: "custom_photo", Index: idx, Decision: DecisionReplaced, UpdateID: u.UpdateID, Detail: dest})
	c.send(ctx, fmt.Sprintf("📷 Foto personalizada aplicada ao item %d.", idx+1))
	if req.Status == StatusApproved {
		c.finishApproved(ctx, &req)
	} else {
		c.presentNext(ctx, &req)
		_ = c.Store.Save(ctx, req)
	}
}

// presentNext sends the prompt for the lowest undecided item. It
// mutates the request (cursor, last prompt time) but does not save it;
// callers persist after the call.
func (c *Coordinator) presentNext(ctx context.Context, req *Request) {
	if req.Kind == KindTopic {
		c.presentTopics(ctx, req)
		return
	}

	idx, ok := req.NextUndecided()
	if !ok {
		return
	}
	req.Cursor = idx
	item := req.Items[idx]

	caption := fmt.Sprintf("📌 <b>Item %d/%d</b>\n%s", idx+1, len(req.Items), item.Text)
	keyboard := &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			{Text: "✅ Aprovar", CallbackData: fmt.Sprintf("aprovar_%d", idx+1)},
			{Text: "🔄 Buscar outra", CallbackData: fmt.Sprintf("buscar_%d", idx+1)},
		},
		{
			{Text: "📷 Enviar foto", CallbackData: fmt.Sprintf("foto_%d", idx+1)},
		},
	}}

	var err error
	if item.Media.Kind == media.KindLocalPhoto && fileExists(item.Media.Source) {
		caption += fmt.Sprintf("\n📁 <i>%s</i>", media.FolderLabel(item.Media.Source))
		_, err = c.Bot.SendPhoto(ctx, item.Media.Source, caption, keyboard)
	} else {
		text := caption
		if !item.Media.IsZero() {
			text += "\n🔗 " + item.Media.Source
		}
		_, err = c.Bot.SendMessage(ctx, text, keyboard)
	}
	if err != nil {
		c.log.Warn("present candidate failed", "index", idx, "error", err)
	}

	now := time.Now()
	req.LastPromptAt = &now
}

func (c *Coordinator) presentTopics(ctx context.Context, req *Request) {
	var b strings.Builder
	b.WriteString("📰 <b>Escolha a notícia do vídeo:</b>\n\n")
	rows := make([][]telegram.InlineKeyboardButton, 0, len(req.Items))
	for i, item := range req.Items {
		fmt.Fprintf(&b, "%d. <b>%s</b>\n%s\n\n", i+1, item.Title, item.Summary)
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: fmt.Sprintf("✅ Notícia %d", i+1), CallbackData: fmt.Sprintf("noticia_%d", i+1)},
			{Text: "✏️ Trocar", CallbackData: fmt.Sprintf("trocar_%d", i+1)},
		})
	}
	b.WriteString("Comandos: /cancelar /pular")
	if _, err := c.Bot.SendMessage(ctx, b.String(), &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
		c.log.Warn("present topics failed", "error", err)
	}
	now := time.Now()
	req.LastPromptAt = &now
}

func (c *Coordinator) finishApproved(ctx context.Context, req *Request) {
	c.send(ctx, fmt.Sprintf("✅ Curadoria concluída: %d itens aprovados. Gerando vídeo...", len(req.Items)))
}

// maybeNudge re-prompts the reviewer after a quiet period with no
// decisions. Nudges repeat once per quiet period, never faster.
func (c *Coordinator) maybeNudge(ctx context.Context) {
	if c.QuietPeriod <= 0 {
		return
	}
	req, ok, err := c.Store.Load(ctx)
	if err != nil || !ok || req.Status.Terminal() {
		return
	}
	if req.LastPromptAt == nil {
		return
	}
	now := time.Now()
	if now.Sub(*req.LastPromptAt) < c.QuietPeriod || now.Sub(c.lastNudge) < c.QuietPeriod {
		return
	}
	c.lastNudge = now
	c.send(ctx, fmt.Sprintf("⏰ Aguardando sua revisão do item %d/%d. Use /status para o progresso ou /pular para aprovar o restante.",
		req.Cursor+1, len(req.Items)))
	req.LastPromptAt = &now
	_ = c.Store.Save(ctx, req)
}

func (c *Coordinator) send(ctx context.Context, text string) {
	if _, err := c.Bot.SendMessage(ctx, text, nil); err != nil {
		c.log.Warn("send message failed", "error", err)
	}
}

func (c *Coordinator) emit(ctx context.Context, e AuditEvent) {
	if c.Audit == nil {
		return
	}
	if err := c.Audit.Emit(ctx, e); err != nil {
		c.log.Warn("audit emit failed", "error", err)
	}
}

func (c *Coordinator) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return 3 * time.Second
	}
	return c.PollInterval
}

func splitCallback(data string) (string, int, bool) {
	i := strings.LastIndex(data, "_")
	if i <= 0 || i == len(data)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(data[i+1:])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return data[:i], n - 1, true
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
