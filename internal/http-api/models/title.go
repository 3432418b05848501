package models

import "time"

type Title struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ISBN      string    `gorm:"uniqueIndex;not null" json:"isbn"`
	Name      string    `gorm:"not null" json:"name"`
	Author    string    `gorm:"not null" json:"author"`
	PubYear   int       `json:"pub_year"`
	Genre     string    `json:"genre"`
	IsVisible bool      `gorm:"default:true;not null" json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Title) TableName() string {
	return "titles"
}

// AvailabilitySummary is the per-title copy breakdown shown on catalog pages.
type AvailabilitySummary struct {
	TitleID    int64 `json:"title_id"`
	Total      int   `json:"total"`
	Available  int   `json:"available"`
	CheckedOut int   `json:"checked_out"`
	Reserved   int   `json:"reserved"`
}
