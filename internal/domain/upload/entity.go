package upload

import "time"

// Upload is the database record of a stored file. StoredAt is the timestamp
// the date shard was derived from and is needed to locate the file again.
type Upload struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	UserID       int64     `gorm:"column:user_id;index" json:"user_id"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	StoredName   string    `gorm:"column:stored_name" json:"stored_name"`
	FilePath     string    `gorm:"column:file_path;uniqueIndex" json:"-"` // relative to the base path
	FileURL      string    `gorm:"column:file_url" json:"url"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	StoredAt     time.Time `gorm:"column:stored_at" json:"stored_at"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }
