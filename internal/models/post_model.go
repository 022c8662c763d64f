package models

import (
	"database/sql"
	"time"
)

type GeneratedPost struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	GeneratedText  string         `db:"generated_text" json:"generated_text"`
	OriginalText   string         `db:"original_text" json:"original_text"`
	Length         string         `db:"length" json:"length"`
	Note           string         `db:"note" json:"note"`
	Posted         bool           `db:"posted" json:"posted"`
	LinkedinPostID sql.NullString `db:"linkedin_post_id" json:"linkedin_post_id"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FileName  string    `db:"file_name"`
	FileType  string    `db:"file_type"`
	FileSize  int64     `db:"file_size"`
	ObjectKey string    `db:"object_key"`
	CreatedAt time.Time `db:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id"`
	AssetID      int64     `db:"asset_id"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`
}

const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)
