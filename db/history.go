package db

import (
	"context"
	"strings"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/db/models"
	"gorm.io/gorm"
)

// History records and queries past publications. It replaces the old
// flat JSON log with a queryable table.
type History struct {
	gdb *gorm.DB
}

func NewHistory(gdb *gorm.DB) *History {
	return &History{gdb: gdb}
}

func (h *History) Record(ctx context.Context, v models.PublishedVideo) error {
	if v.PublishedAt == 0 {
		v.PublishedAt = time.Now().Unix()
	}
	return h.gdb.WithContext(ctx).Create(&v).Error
}

// Recent returns the newest publications first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.PublishedVideo, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.PublishedVideo
	err := h.gdb.WithContext(ctx).
		Order("published_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TitleExists reports whether a video with this title was already
// published, used to skip repeated headlines across runs.
func (h *History) TitleExists(ctx context.Context, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}
	var count int64
	err := h.gdb.WithContext(ctx).
		Model(&models.PublishedVideo{}).
		Where("title = ?", title).
		Count(&count).Error
	return count > 0, err
}
