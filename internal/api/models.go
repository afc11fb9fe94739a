// Package api implements the typed REST client for the Gradient Academy
// private API.
package api

import "fmt"

// Course is a catalog entry from the course listing endpoint.
type Course struct {
	ID           string `json:"id"`
	Name         string `json:"course_name"`
	Slug         string `json:"slug"`
	Cover        string `json:"cover"`
	Thumbnail    string `json:"thumbnail"`
	Trailer      string `json:"trailer"`
	IsFree       bool   `json:"is_free"`
	IsComingSoon bool   `json:"is_coming_soon"`
	IsNew        bool   `json:"is_new"`
}

// Validate checks the fields needed to key and route subsequent fetches.
func (c Course) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("course missing id")
	}
	if c.Slug == "" {
		return fmt.Errorf("course %s missing slug", c.ID)
	}
	return nil
}

// Chapter is one entry of a course's content listing.
type Chapter struct {
	ID              string `json:"chapter_id"`
	Name            string `json:"chapter_name"`
	Order           int    `json:"order"`
	SubchapterCount int    `json:"subchapter_counts"`
	IsComingSoon    bool   `json:"is_coming_soon"`
}

// Validate checks the fields needed to key the chapter.
func (c Chapter) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chapter missing id")
	}
	return nil
}

// Subchapter is one entry of a chapter's subchapter listing. Type is "video",
// "exercise", or another platform-defined kind; only video subchapters carry a
// Video in their detail record.
type Subchapter struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Order      int    `json:"order"`
	Name       string `json:"subchapter_name"`
	Slug       string `json:"subchapter_slug"`
	Duration   string `json:"duration"`
	IsFree     bool   `json:"is_free"`
	Thumbnail  string `json:"thumbnail"`
	VideoID    string `json:"video_id"`
	ExerciseID string `json:"exercise_id"`
}

// Validate checks the fields needed to key and route the detail fetch.
func (s Subchapter) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("subchapter missing id")
	}
	if s.Slug == "" {
		return fmt.Errorf("subchapter %s missing slug", s.ID)
	}
	return nil
}

// Lecturer appears inside a video's detail record.
type Lecturer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Photo string `json:"photo"`
}

// Video is the playable asset attached to a video subchapter. DRMVideoURL and
// DRMToken form the token-gated alternate source; MuxPlaybackID identifies the
// asset on the streaming CDN.
type Video struct {
	ID             string     `json:"id"`
	VideoURL       string     `json:"video_url"`
	Duration       string     `json:"duration"`
	Description    string     `json:"description"`
	Thumbnail      string     `json:"thumbnail"`
	IsFree         bool       `json:"is_free"`
	DRMVideoURL    string     `json:"drm_video_url"`
	IsDRMProtected bool       `json:"is_drm_protected"`
	Token          string     `json:"token"`
	DRMToken       string     `json:"drm_token"`
	MuxPlaybackID  string     `json:"mux_playback_id"`
	Lecturers      []Lecturer `json:"lecturers"`
}

// SubchapterDetail is the full record behind a single subchapter. Video is nil
// for non-video subchapters; that absence is not an error.
type SubchapterDetail struct {
	ID          string `json:"id"`
	Name        string `json:"subchapter_name"`
	Slug        string `json:"subchapter_slug"`
	TypeName    string `json:"type_name"`
	Thumbnail   string `json:"thumbnail"`
	Order       int    `json:"order"`
	Video       *Video `json:"video"`
	ChapterID   string `json:"chapter_id"`
	ChapterName string `json:"chapter_name"`
}

// Validate checks the fields needed to attach the detail to its subchapter.
func (d SubchapterDetail) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("subchapter detail missing id")
	}
	return nil
}

// Book is a companion text attached to a course. Keyed by slug upstream.
type Book struct {
	Slug               string  `json:"slug"`
	Title              string  `json:"title"`
	Rating             float64 `json:"rating"`
	CoverURL           string  `json:"book_cover_url"`
	Authors            string  `json:"authors"`
	Category           string  `json:"category"`
	PercentageProgress float64 `json:"percentage_progress"`
}

// Validate checks the book's key.
func (b Book) Validate() error {
	if b.Slug == "" {
		return fmt.Errorf("book missing slug")
	}
	return nil
}

// CourseContent bundles the chapter and book listings returned by the course
// content endpoint.
type CourseContent struct {
	Chapters []Chapter `json:"chapters"`
	Books    []Book    `json:"books"`
}
