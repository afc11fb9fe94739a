package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gradientharvest/internal/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedHierarchy(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.UpsertCourse(ctx, api.Course{
		ID: "c1", Name: "Intro Calculus", Slug: "intro-calculus", IsFree: true,
	}))
	require.NoError(t, s.UpsertChapter(ctx, api.Chapter{
		ID: "ch1", Name: "Limits", Order: 0, SubchapterCount: 2,
	}, "c1"))
	require.NoError(t, s.UpsertSubchapter(ctx, api.Subchapter{
		ID: "s1", Name: "What is a limit", Slug: "what-is-a-limit", Type: "video", Order: 0,
	}, "ch1"))
	require.NoError(t, s.UpsertVideo(ctx, api.Video{
		ID: "v1", VideoURL: "https://stream.mux.com/abc.m3u8", MuxPlaybackID: "abc", Token: "tok",
	}, "s1"))
}

func TestUpsertCourseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	course := api.Course{ID: "c1", Name: "Intro Calculus", Slug: "intro-calculus"}
	require.NoError(t, s.UpsertCourse(ctx, course))
	require.NoError(t, s.UpsertCourse(ctx, course))

	var count int64
	require.NoError(t, s.db.Model(&Course{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpsertReplacesMutableFields(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCourse(ctx, api.Course{
		ID: "c1", Name: "Old Name", Slug: "intro-calculus",
	}))
	require.NoError(t, s.UpsertCourse(ctx, api.Course{
		ID: "c1", Name: "New Name", Slug: "intro-calculus", IsFree: true,
	}))

	var row Course
	require.NoError(t, s.db.First(&row, "id = ?", "c1").Error)
	require.Equal(t, "New Name", row.Name)
	require.True(t, row.IsFree)

	var count int64
	require.NoError(t, s.db.Model(&Course{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLinkVideoLecturerIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertLecturer(ctx, api.Lecturer{ID: "l1", Name: "Dr. Ada"}))
	require.NoError(t, s.LinkVideoLecturer(ctx, "v1", "l1"))
	require.NoError(t, s.LinkVideoLecturer(ctx, "v1", "l1"))

	var count int64
	require.NoError(t, s.db.Model(&VideoLecturer{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStatsCountsEveryKind(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	seedHierarchy(t, s)
	require.NoError(t, s.UpsertLecturer(ctx, api.Lecturer{ID: "l1", Name: "Dr. Ada"}))
	require.NoError(t, s.UpsertBook(ctx, api.Book{Slug: "calc-book", Title: "Calculus Companion"}, "c1"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{
		Courses: 1, Chapters: 1, Subchapters: 1, Videos: 1, Lecturers: 1, Books: 1,
	}, stats)
}

func TestCourseSummariesJoinPath(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	seedHierarchy(t, s)

	summaries, err := s.CourseSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "intro-calculus", summaries[0].Slug)
	require.Equal(t, int64(1), summaries[0].Chapters)
	require.Equal(t, int64(1), summaries[0].Subchapters)
}

func TestCourseVideosPreservesOrdering(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCourse(ctx, api.Course{ID: "c1", Name: "Course", Slug: "course"}))
	require.NoError(t, s.UpsertChapter(ctx, api.Chapter{ID: "ch1", Name: "Chapter", Order: 0}, "c1"))

	// Insert out of order: order values [2, 0, 1].
	for _, sub := range []api.Subchapter{
		{ID: "s2", Name: "Third", Slug: "third", Type: "video", Order: 2},
		{ID: "s0", Name: "First", Slug: "first", Type: "video", Order: 0},
		{ID: "s1", Name: "Second", Slug: "second", Type: "video", Order: 1},
	} {
		require.NoError(t, s.UpsertSubchapter(ctx, sub, "ch1"))
		require.NoError(t, s.UpsertVideo(ctx, api.Video{ID: "v-" + sub.ID}, sub.ID))
	}

	videos, err := s.CourseVideos(ctx, "course")
	require.NoError(t, err)
	require.Len(t, videos, 3)
	require.Equal(t, []int{0, 1, 2}, []int{
		videos[0].SubchapterOrder, videos[1].SubchapterOrder, videos[2].SubchapterOrder,
	})
	require.Equal(t, "First", videos[0].SubchapterName)
	require.Equal(t, "Third", videos[2].SubchapterName)
}

func TestCoursesWithVideosExcludesVideolessCourses(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	seedHierarchy(t, s)
	require.NoError(t, s.UpsertCourse(ctx, api.Course{ID: "c2", Name: "Empty Course", Slug: "empty"}))

	courses, err := s.CoursesWithVideos(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "intro-calculus", courses[0].Slug)
	require.Equal(t, int64(1), courses[0].VideoCount)
}

func TestSubchapterWithoutVideoIsNotAnError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCourse(ctx, api.Course{ID: "c1", Name: "Course", Slug: "course"}))
	require.NoError(t, s.UpsertChapter(ctx, api.Chapter{ID: "ch1", Name: "Chapter"}, "c1"))
	require.NoError(t, s.UpsertSubchapter(ctx, api.Subchapter{
		ID: "s1", Name: "Drills", Slug: "drills", Type: "exercise",
	}, "ch1"))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Subchapters)
	require.Equal(t, int64(0), stats.Videos)
}
