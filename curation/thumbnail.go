package curation

import (
	"context"
	"fmt"
	"time"
)

// RequestThumbnail offers the reviewer a window to upload a custom
// thumbnail before publishing. It returns the uploaded file path, or
// an empty path when the reviewer skips with /pular or the window
// closes without an upload.
func (c *Coordinator) RequestThumbnail(ctx context.Context, title string, timeout time.Duration) (string, error) {
	if c.Thumbs == nil {
		return "", nil
	}

	rec := ThumbnailRecord{
		Title:     title,
		Status:    StatusPending,
		Timestamp: time.Now(),
	}
	if err := c.Thumbs.SaveThumbnail(ctx, rec); err != nil {
		return "", fmt.Errorf("request thumbnail: %w", err)
	}

	c.offset = c.Bot.NextOffset(ctx)
	c.send(ctx, fmt.Sprintf(
		"🖼️ <b>Thumbnail personalizada?</b>\nVídeo: %s\n\nEnvie uma imagem em até %d minutos ou use /pular para a thumbnail automática.",
		title, int(timeout.Minutes()),
	))
	c.emit(ctx, AuditEvent{Event: "thumbnail_requested", Detail: title})

	deadline := time.Now().Add(timeout)
	lastNotice := time.Now()
	for {
		rec, ok, err := c.Thumbs.LoadThumbnail(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}

		switch rec.Status {
		case StatusReceived:
			_ = c.Thumbs.DeleteThumbnail(ctx)
			c.emit(ctx, AuditEvent{Event: "thumbnail_received", Detail: rec.ThumbnailPath})
			return rec.ThumbnailPath, nil
		case StatusSkipped:
			_ = c.Thumbs.DeleteThumbnail(ctx)
			c.emit(ctx, AuditEvent{Event: "thumbnail_skipped"})
			return "", nil
		}

		if time.Now().After(deadline) {
			_ = c.Thumbs.DeleteThumbnail(ctx)
			c.send(ctx, "⏰ Tempo esgotado, usando a thumbnail automática.")
			c.emit(ctx, AuditEvent{Event: "thumbnail_timeout"})
			return "", nil
		}

		if time.Since(lastNotice) >= 5*time.Minute {
			lastNotice = time.Now()
			remaining := int(time.Until(deadline).Minutes())
			c.send(ctx, fmt.Sprintf("⏳ Ainda aguardando a thumbnail (%d min restantes). /pular para seguir sem.", remaining))
		}

		c.processUpdates(ctx)

		select {
		case <-ctx.Done():
			_ = c.Thumbs.DeleteThumbnail(ctx)
			return "", ctx.Err()
		case <-time.After(c.pollInterval()):
		}
	}
}

// skipPendingThumbnail marks a pending thumbnail request as skipped.
// Returns false when no thumbnail request is waiting, in which case
// /pular falls through to the review bulk approval.
func (c *Coordinator) skipPendingThumbnail(ctx context.Context) bool {
	if c.Thumbs == nil {
		return false
	}
	rec, ok, err := c.Thumbs.LoadThumbnail(ctx)
	if err != nil || !ok || rec.Status != StatusPending {
		return false
	}
	rec.Status = StatusSkipped
	if err := c.Thumbs.SaveThumbnail(ctx, rec); err != nil {
		c.log.Error("save thumbnail skip failed", "error", err)
		return false
	}
	c.send(ctx, "⏭️ Seguindo com a thumbnail automática.")
	return true
}
