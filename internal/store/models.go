// Package store implements the normalized relational store for harvested
// catalog metadata.
package store

import "time"

// Course is one row of the courses table.
type Course struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"column:course_name;not null"`
	Slug         string `gorm:"uniqueIndex;not null"`
	CoverURL     string `gorm:"column:cover_url"`
	ThumbnailURL string `gorm:"column:thumbnail_url"`
	TrailerURL   string `gorm:"column:trailer_url"`
	IsFree       bool
	IsComingSoon bool
	CreatedAt    time.Time
}

// TableName sets the courses table name.
func (Course) TableName() string { return "courses" }

// Chapter is one row of the chapters table.
type Chapter struct {
	ID              string `gorm:"primaryKey"`
	CourseID        string `gorm:"index;not null"`
	Name            string `gorm:"column:chapter_name;not null"`
	OrderIndex      int    `gorm:"column:order_index"`
	SubchapterCount int    `gorm:"column:subchapter_counts"`
	IsComingSoon    bool
	CreatedAt       time.Time
}

// TableName sets the chapters table name.
func (Chapter) TableName() string { return "chapters" }

// Subchapter is one row of the subchapters table.
type Subchapter struct {
	ID           string `gorm:"primaryKey"`
	ChapterID    string `gorm:"index;not null"`
	Name         string `gorm:"column:subchapter_name;not null"`
	Slug         string `gorm:"column:subchapter_slug;uniqueIndex;not null"`
	Type         string `gorm:"not null"`
	OrderIndex   int    `gorm:"column:order_index"`
	Duration     string
	IsFree       bool
	ThumbnailURL string `gorm:"column:thumbnail_url"`
	CreatedAt    time.Time
}

// TableName sets the subchapters table name.
func (Subchapter) TableName() string { return "subchapters" }

// Video is one row of the videos table.
type Video struct {
	ID             string `gorm:"primaryKey"`
	SubchapterID   string `gorm:"index;not null"`
	VideoURL       string `gorm:"column:video_url"`
	DRMVideoURL    string `gorm:"column:drm_video_url"`
	Token          string
	DRMToken       string `gorm:"column:drm_token"`
	MuxPlaybackID  string `gorm:"column:mux_playback_id"`
	Duration       string
	Description    string
	ThumbnailURL   string `gorm:"column:thumbnail_url"`
	IsFree         bool
	IsDRMProtected bool `gorm:"column:is_drm_protected"`
	CreatedAt      time.Time
}

// TableName sets the videos table name.
func (Video) TableName() string { return "videos" }

// Lecturer is one row of the lecturers table.
type Lecturer struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Role      string
	PhotoURL  string `gorm:"column:photo_url"`
	CreatedAt time.Time
}

// TableName sets the lecturers table name.
func (Lecturer) TableName() string { return "lecturers" }

// VideoLecturer is the video↔lecturer join table.
type VideoLecturer struct {
	VideoID    string `gorm:"primaryKey"`
	LecturerID string `gorm:"primaryKey"`
}

// TableName sets the join table name.
func (VideoLecturer) TableName() string { return "video_lecturers" }

// Book is one row of the books table, keyed by slug upstream.
type Book struct {
	Slug               string `gorm:"primaryKey"`
	Title              string `gorm:"not null"`
	Rating             float64
	CoverURL           string `gorm:"column:book_cover_url"`
	Authors            string
	Category           string
	PercentageProgress float64
	CourseID           string `gorm:"index"`
	CreatedAt          time.Time
}

// TableName sets the books table name.
func (Book) TableName() string { return "books" }

func allModels() []any {
	return []any{
		&Course{},
		&Chapter{},
		&Subchapter{},
		&Video{},
		&Lecturer{},
		&VideoLecturer{},
		&Book{},
	}
}
