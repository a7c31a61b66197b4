package models

// PublishedVideo is one row of the publication history, written after
// every successful upload.
type PublishedVideo struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string  `gorm:"column:title;type:text;not null;index:idx_published_title"`
	Kind        string  `gorm:"column:kind;type:text;not null"`
	Topic       string  `gorm:"column:topic;type:text"`
	LocalPath   string  `gorm:"column:local_path;type:text"`
	YouTubeID   string  `gorm:"column:youtube_id;type:text"`
	TikTokID    string  `gorm:"column:tiktok_id;type:text"`
	ReleaseTag  string  `gorm:"column:release_tag;type:text"`
	Duration    float64 `gorm:"column:duration"`
	PublishedAt int64   `gorm:"column:published_at;not null;index:idx_published_at"`
}

func (PublishedVideo) TableName() string { return "published_videos" }
