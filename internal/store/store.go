package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"gradientharvest/internal/api"
	"gradientharvest/internal/config"
)

// Store persists harvested entities with insert-or-replace semantics. Every
// upsert is a single atomic statement keyed by primary key; re-crawling an
// entity overwrites its mutable fields in place and never duplicates or
// deletes rows.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database, runs idempotent schema setup, and
// returns a Store ready for concurrent use. The sqlite driver gets a busy
// timeout so pooled workers queue on the file lock instead of erroring.
func Open(cfg config.DBConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL")
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown db driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// OpenMemory opens a private in-memory sqlite store, for tests. The database
// is named uniquely so the connection pool shares one memory instance without
// colliding with other stores in the same process.
func OpenMemory(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open memory database: %w", err)
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// replaceAll is the shared insert-or-replace clause: on primary-key conflict
// every non-key column is overwritten.
var replaceAll = clause.OnConflict{UpdateAll: true}

// UpsertCourse inserts or replaces a course row.
func (s *Store) UpsertCourse(ctx context.Context, course api.Course) error {
	row := Course{
		ID:           course.ID,
		Name:         course.Name,
		Slug:         course.Slug,
		CoverURL:     course.Cover,
		ThumbnailURL: course.Thumbnail,
		TrailerURL:   course.Trailer,
		IsFree:       course.IsFree,
		IsComingSoon: course.IsComingSoon,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert course %s: %w", course.ID, err)
	}
	return nil
}

// UpsertChapter inserts or replaces a chapter row linked to its course.
func (s *Store) UpsertChapter(ctx context.Context, chapter api.Chapter, courseID string) error {
	row := Chapter{
		ID:              chapter.ID,
		CourseID:        courseID,
		Name:            chapter.Name,
		OrderIndex:      chapter.Order,
		SubchapterCount: chapter.SubchapterCount,
		IsComingSoon:    chapter.IsComingSoon,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert chapter %s: %w", chapter.ID, err)
	}
	return nil
}

// UpsertSubchapter inserts or replaces a subchapter row linked to its chapter.
func (s *Store) UpsertSubchapter(ctx context.Context, sub api.Subchapter, chapterID string) error {
	row := Subchapter{
		ID:           sub.ID,
		ChapterID:    chapterID,
		Name:         sub.Name,
		Slug:         sub.Slug,
		Type:         sub.Type,
		OrderIndex:   sub.Order,
		Duration:     sub.Duration,
		IsFree:       sub.IsFree,
		ThumbnailURL: sub.Thumbnail,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert subchapter %s: %w", sub.ID, err)
	}
	return nil
}

// UpsertVideo inserts or replaces a video row linked to its subchapter.
func (s *Store) UpsertVideo(ctx context.Context, video api.Video, subchapterID string) error {
	row := Video{
		ID:             video.ID,
		SubchapterID:   subchapterID,
		VideoURL:       video.VideoURL,
		DRMVideoURL:    video.DRMVideoURL,
		Token:          video.Token,
		DRMToken:       video.DRMToken,
		MuxPlaybackID:  video.MuxPlaybackID,
		Duration:       video.Duration,
		Description:    video.Description,
		ThumbnailURL:   video.Thumbnail,
		IsFree:         video.IsFree,
		IsDRMProtected: video.IsDRMProtected,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert video %s: %w", video.ID, err)
	}
	return nil
}

// UpsertLecturer inserts or replaces a lecturer row.
func (s *Store) UpsertLecturer(ctx context.Context, lecturer api.Lecturer) error {
	row := Lecturer{
		ID:       lecturer.ID,
		Name:     lecturer.Name,
		Role:     lecturer.Role,
		PhotoURL: lecturer.Photo,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert lecturer %s: %w", lecturer.ID, err)
	}
	return nil
}

// LinkVideoLecturer inserts the video↔lecturer relation; replaying an existing
// link is a no-op.
func (s *Store) LinkVideoLecturer(ctx context.Context, videoID, lecturerID string) error {
	row := VideoLecturer{VideoID: videoID, LecturerID: lecturerID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("link video %s lecturer %s: %w", videoID, lecturerID, err)
	}
	return nil
}

// UpsertBook inserts or replaces a book row linked to its course.
func (s *Store) UpsertBook(ctx context.Context, book api.Book, courseID string) error {
	row := Book{
		Slug:               book.Slug,
		Title:              book.Title,
		Rating:             book.Rating,
		CoverURL:           book.CoverURL,
		Authors:            book.Authors,
		Category:           book.Category,
		PercentageProgress: book.PercentageProgress,
		CourseID:           courseID,
	}
	if err := s.db.WithContext(ctx).Clauses(replaceAll).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert book %s: %w", book.Slug, err)
	}
	return nil
}

// Stats holds aggregate row counts for reporting.
type Stats struct {
	Courses     int64
	Chapters    int64
	Subchapters int64
	Videos      int64
	Lecturers   int64
	Books       int64
}

// Stats counts rows per entity kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		model any
		dest  *int64
	}{
		{&Course{}, &stats.Courses},
		{&Chapter{}, &stats.Chapters},
		{&Subchapter{}, &stats.Subchapters},
		{&Video{}, &stats.Videos},
		{&Lecturer{}, &stats.Lecturers},
		{&Book{}, &stats.Books},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return Stats{}, fmt.Errorf("count rows: %w", err)
		}
	}
	return stats, nil
}

// CourseSummary reports per-course chapter and subchapter counts.
type CourseSummary struct {
	CourseName  string
	Slug        string
	Chapters    int64
	Subchapters int64
}

// CourseSummaries lists all courses with their chapter/subchapter counts,
// ordered by course name.
func (s *Store) CourseSummaries(ctx context.Context) ([]CourseSummary, error) {
	var out []CourseSummary
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.course_name,
		       c.slug,
		       COUNT(DISTINCT ch.id) AS chapters,
		       COUNT(DISTINCT sc.id) AS subchapters
		FROM courses c
		LEFT JOIN chapters ch ON ch.course_id = c.id
		LEFT JOIN subchapters sc ON sc.chapter_id = ch.id
		GROUP BY c.id, c.course_name, c.slug
		ORDER BY c.course_name`).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("course summaries: %w", err)
	}
	return out, nil
}

// CourseWithVideos reports how many videos a course has.
type CourseWithVideos struct {
	CourseName string
	Slug       string
	VideoCount int64
}

// CoursesWithVideos lists courses that have at least one persisted video.
func (s *Store) CoursesWithVideos(ctx context.Context) ([]CourseWithVideos, error) {
	var out []CourseWithVideos
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.course_name,
		       c.slug,
		       COUNT(DISTINCT v.id) AS video_count
		FROM courses c
		JOIN chapters ch ON ch.course_id = c.id
		JOIN subchapters sc ON sc.chapter_id = ch.id
		JOIN videos v ON v.subchapter_id = sc.id
		GROUP BY c.id, c.course_name, c.slug
		ORDER BY c.course_name`).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("courses with videos: %w", err)
	}
	return out, nil
}

// CourseVideo is one downloadable video joined across the hierarchy, carrying
// the order values that define the on-disk layout.
type CourseVideo struct {
	CourseName      string
	ChapterName     string
	SubchapterName  string
	VideoID         string
	VideoURL        string
	DRMVideoURL     string `gorm:"column:drm_video_url"`
	Token           string
	DRMToken        string `gorm:"column:drm_token"`
	MuxPlaybackID   string `gorm:"column:mux_playback_id"`
	SubchapterID    string
	ChapterOrder    int
	SubchapterOrder int
}

// CourseVideos lists a course's videos ordered by (chapter order, subchapter
// order), the sequence any materialized listing must preserve.
func (s *Store) CourseVideos(ctx context.Context, courseSlug string) ([]CourseVideo, error) {
	var out []CourseVideo
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.course_name,
		       ch.chapter_name,
		       sc.subchapter_name,
		       v.id AS video_id,
		       v.video_url,
		       v.drm_video_url,
		       v.token,
		       v.drm_token,
		       v.mux_playback_id,
		       sc.id AS subchapter_id,
		       ch.order_index AS chapter_order,
		       sc.order_index AS subchapter_order
		FROM courses c
		JOIN chapters ch ON ch.course_id = c.id
		JOIN subchapters sc ON sc.chapter_id = ch.id
		JOIN videos v ON v.subchapter_id = sc.id
		WHERE c.slug = ?
		ORDER BY ch.order_index, sc.order_index`, courseSlug).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("course videos for %s: %w", courseSlug, err)
	}
	return out, nil
}
