// Package harvest walks the course → chapter → subchapter → detail hierarchy,
// persisting every fetched record.
//
// The walk is breadth-limited and depth-sequential: each fan-out point opens
// its own bounded pool and fully drains it before the enclosing step
// completes. Failures are recovered per branch; a failed course, chapter, or
// subchapter is logged and skipped while its siblings proceed, and a rerun
// repairs the gap through idempotent upserts.
package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gradientharvest/internal/api"
	"gradientharvest/internal/pool"
	"gradientharvest/internal/store"
)

// Orchestrator drives a full catalog crawl.
type Orchestrator struct {
	fetcher api.Fetcher
	store   *store.Store
	tracker pool.Tracker
	logger  *zap.Logger
	workers int
}

// New builds an Orchestrator. tracker may be nil.
func New(fetcher api.Fetcher, st *store.Store, tracker pool.Tracker, logger *zap.Logger, workers int) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		fetcher: fetcher,
		store:   st,
		tracker: tracker,
		logger:  logger,
		workers: workers,
	}
}

// Report summarizes a completed run. FailedBranches counts branches that were
// skipped after an unrecoverable fetch error; persisted counts only include
// rows whose upsert succeeded.
type Report struct {
	Courses        int
	Chapters       int
	Books          int
	Subchapters    int
	Videos         int
	Lecturers      int
	FailedBranches int
	Elapsed        time.Duration
}

type branchStats struct {
	chapters    int
	books       int
	subchapters int
	videos      int
	lecturers   int
	failed      int
}

func (b *branchStats) add(other branchStats) {
	b.chapters += other.chapters
	b.books += other.books
	b.subchapters += other.subchapters
	b.videos += other.videos
	b.lecturers += other.lecturers
	b.failed += other.failed
}

// Run crawls the entire catalog. Only a failure of the root course listing is
// returned as an error; everything below it degrades to skipped branches.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	courses, err := o.fetcher.ListCourses(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list courses: %w", err)
	}
	o.logger.Info("course listing fetched", zap.Int("courses", len(courses)))

	persisted := 0
	byID := make(map[string]api.Course, len(courses))
	for _, course := range courses {
		if err := o.store.UpsertCourse(ctx, course); err != nil {
			o.logger.Error("course upsert failed",
				zap.String("course", course.Slug), zap.Error(err))
		} else {
			persisted++
		}
		byID[course.ID] = course
	}

	results := pool.Run(ctx, byID, o.harvestCourse, pool.Options{
		Workers: o.workers,
		Label:   "courses",
		Logger:  o.logger,
		Tracker: o.tracker,
	})

	var total branchStats
	for _, res := range results {
		if res.Err != nil {
			total.failed++
			continue
		}
		total.add(res.Value)
	}

	report := Report{
		Courses:        persisted,
		Chapters:       total.chapters,
		Books:          total.books,
		Subchapters:    total.subchapters,
		Videos:         total.videos,
		Lecturers:      total.lecturers,
		FailedBranches: total.failed,
		Elapsed:        time.Since(start),
	}
	o.logger.Info("harvest completed",
		zap.Int("courses", report.Courses),
		zap.Int("chapters", report.Chapters),
		zap.Int("books", report.Books),
		zap.Int("subchapters", report.Subchapters),
		zap.Int("videos", report.Videos),
		zap.Int("lecturers", report.Lecturers),
		zap.Int("failed_branches", report.FailedBranches),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// harvestCourse fetches one course's content listing, persists its chapters
// and books, and walks each chapter in sequence.
func (o *Orchestrator) harvestCourse(ctx context.Context, courseID string, course api.Course) (branchStats, error) {
	var stats branchStats

	content, err := o.fetcher.GetCourseContent(ctx, course.Slug)
	if err != nil {
		return stats, fmt.Errorf("course %s content: %w", course.Slug, err)
	}

	for _, book := range content.Books {
		if err := o.store.UpsertBook(ctx, book, courseID); err != nil {
			o.logger.Error("book upsert failed",
				zap.String("course", course.Slug), zap.String("book", book.Slug), zap.Error(err))
			continue
		}
		stats.books++
	}

	for _, chapter := range content.Chapters {
		if err := o.store.UpsertChapter(ctx, chapter, courseID); err != nil {
			o.logger.Error("chapter upsert failed",
				zap.String("course", course.Slug), zap.String("chapter", chapter.ID), zap.Error(err))
		} else {
			stats.chapters++
		}

		chapterStats, err := o.harvestChapter(ctx, course, chapter)
		if err != nil {
			o.logger.Warn("chapter branch skipped",
				zap.String("course", course.Slug),
				zap.String("chapter", chapter.ID),
				zap.Error(err),
			)
			stats.failed++
			continue
		}
		stats.add(chapterStats)
	}
	return stats, nil
}

// harvestChapter fetches one chapter's subchapter listing, persists it, and
// fans out across the subchapters for their detail records.
func (o *Orchestrator) harvestChapter(ctx context.Context, course api.Course, chapter api.Chapter) (branchStats, error) {
	var stats branchStats

	subchapters, err := o.fetcher.ListSubchapters(ctx, chapter.ID)
	if err != nil {
		return stats, fmt.Errorf("chapter %s subchapters: %w", chapter.ID, err)
	}

	bySlug := make(map[string]api.Subchapter, len(subchapters))
	for _, sub := range subchapters {
		if err := o.store.UpsertSubchapter(ctx, sub, chapter.ID); err != nil {
			o.logger.Error("subchapter upsert failed",
				zap.String("chapter", chapter.ID), zap.String("subchapter", sub.ID), zap.Error(err))
		} else {
			stats.subchapters++
		}
		bySlug[sub.Slug] = sub
	}

	results := pool.Run(ctx, bySlug,
		func(ctx context.Context, slug string, _ api.Subchapter) (branchStats, error) {
			return o.harvestSubchapterDetail(ctx, course.Slug, slug)
		},
		pool.Options{
			Workers: o.workers,
			Label:   "subchapters/" + chapter.ID,
			Logger:  o.logger,
			Tracker: o.tracker,
		},
	)

	for _, res := range results {
		if res.Err != nil {
			stats.failed++
			continue
		}
		stats.add(res.Value)
	}
	return stats, nil
}

// harvestSubchapterDetail fetches one subchapter's detail record and persists
// its video and lecturers when present. A missing detail or a detail without
// a video is a benign no-op.
func (o *Orchestrator) harvestSubchapterDetail(ctx context.Context, courseSlug, subchapterSlug string) (branchStats, error) {
	var stats branchStats

	detail, err := o.fetcher.GetSubchapterDetail(ctx, courseSlug, subchapterSlug)
	if err != nil {
		return stats, fmt.Errorf("subchapter %s/%s detail: %w", courseSlug, subchapterSlug, err)
	}
	if detail == nil || detail.Video == nil {
		return stats, nil
	}

	video := detail.Video
	if err := o.store.UpsertVideo(ctx, *video, detail.ID); err != nil {
		o.logger.Error("video upsert failed",
			zap.String("subchapter", detail.ID), zap.String("video", video.ID), zap.Error(err))
		return stats, nil
	}
	stats.videos++

	for _, lecturer := range video.Lecturers {
		if err := o.store.UpsertLecturer(ctx, lecturer); err != nil {
			o.logger.Error("lecturer upsert failed",
				zap.String("lecturer", lecturer.ID), zap.Error(err))
			continue
		}
		if err := o.store.LinkVideoLecturer(ctx, video.ID, lecturer.ID); err != nil {
			o.logger.Error("video lecturer link failed",
				zap.String("video", video.ID), zap.String("lecturer", lecturer.ID), zap.Error(err))
			continue
		}
		stats.lecturers++
	}
	return stats, nil
}
