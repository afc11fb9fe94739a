package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gradientharvest/internal/api"
	"gradientharvest/internal/store"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(name string, args []string) error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail(name, args)
	}
	return nil
}

func (f *fakeRunner) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.calls))
	for i, call := range f.calls {
		lines[i] = strings.Join(call, " ")
	}
	return lines
}

func seedCourse(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.UpsertCourse(ctx, api.Course{ID: "c1", Name: "Intro Calculus", Slug: "intro-calculus"}))
	require.NoError(t, s.UpsertChapter(ctx, api.Chapter{ID: "ch1", Name: "Limits", Order: 1}, "c1"))
	require.NoError(t, s.UpsertSubchapter(ctx, api.Subchapter{
		ID: "s1", Name: "What is a limit", Slug: "what-is-a-limit", Type: "video", Order: 2,
	}, "ch1"))
	require.NoError(t, s.UpsertVideo(ctx, api.Video{
		ID: "v1", VideoURL: "https://stream.mux.com/abc.m3u8", Token: "tok",
		DRMVideoURL: "https://drm.example.com/abc.mpd", DRMToken: "drmtok",
	}, "s1"))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSourceURLsTryOrder(t *testing.T) {
	t.Parallel()

	urls := sourceURLs(store.CourseVideo{
		VideoURL:    "https://stream.mux.com/abc.m3u8",
		Token:       "tok",
		DRMVideoURL: "https://drm.example.com/abc.mpd",
		DRMToken:    "drmtok",
	})
	require.Equal(t, []string{
		"https://stream.mux.com/abc.m3u8?token=tok",
		"https://drm.example.com/abc.mpd?token=drmtok",
	}, urls)
}

func TestSourceURLsWithoutMuxHostLeavesURLUntouched(t *testing.T) {
	t.Parallel()

	urls := sourceURLs(store.CourseVideo{
		VideoURL: "https://cdn.example.com/video.m3u8",
		Token:    "tok",
	})
	require.Equal(t, []string{"https://cdn.example.com/video.m3u8"}, urls)
}

func TestVideoPathLayout(t *testing.T) {
	t.Parallel()

	d := NewDownloader(nil, "out", "ffmpeg", &fakeRunner{}, nil)
	path := d.videoPath(filepath.Join("out", "intro_calculus"), store.CourseVideo{
		ChapterName:     "Limits & Continuity",
		SubchapterName:  "What is a limit?",
		ChapterOrder:    1,
		SubchapterOrder: 2,
	})
	// gosimple/slug spells out the ampersand.
	require.Equal(t,
		filepath.Join("out", "intro_calculus", "01_limits_and_continuity", "02_what_is_a_limit.mp4"),
		path)
}

func TestDownloadCourseInvokesFFmpeg(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedCourse(t, s)

	runner := &fakeRunner{}
	out := t.TempDir()
	d := NewDownloader(s, out, "ffmpeg", runner, nil)

	res, err := d.DownloadCourse(context.Background(), "intro-calculus")
	require.NoError(t, err)
	require.Equal(t, Result{Downloaded: 1}, res)

	lines := runner.commandLines()
	// First call is the construction-time version probe.
	require.Contains(t, lines[0], "-version")
	require.Contains(t, lines[1], "https://stream.mux.com/abc.m3u8?token=tok")
	require.Contains(t, lines[1], "-c copy")
}

func TestDownloadCourseFallsBackToDRMURL(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedCourse(t, s)

	runner := &fakeRunner{
		fail: func(_ string, args []string) error {
			for _, a := range args {
				if strings.Contains(a, "stream.mux.com") {
					return errors.New("exit status 1")
				}
			}
			return nil
		},
	}
	d := NewDownloader(s, t.TempDir(), "ffmpeg", runner, nil)

	res, err := d.DownloadCourse(context.Background(), "intro-calculus")
	require.NoError(t, err)
	require.Equal(t, Result{Downloaded: 1}, res)

	lines := runner.commandLines()
	require.Contains(t, lines[len(lines)-1], "https://drm.example.com/abc.mpd?token=drmtok")
}

func TestDownloadCourseSkipsExistingFiles(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedCourse(t, s)

	out := t.TempDir()
	existing := filepath.Join(out, "intro_calculus", "01_limits", "02_what_is_a_limit.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("already here"), 0o644))

	runner := &fakeRunner{}
	d := NewDownloader(s, out, "ffmpeg", runner, nil)

	res, err := d.DownloadCourse(context.Background(), "intro-calculus")
	require.NoError(t, err)
	require.Equal(t, Result{Skipped: 1}, res)
	// Only the version probe ran.
	require.Len(t, runner.commandLines(), 1)
}

func TestDownloadCourseWithoutVideosFails(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	d := NewDownloader(s, t.TempDir(), "ffmpeg", &fakeRunner{}, nil)

	_, err := d.DownloadCourse(context.Background(), "missing-course")
	require.Error(t, err)
}

func TestUploadFileDeletesLocalOnlyAfterSuccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(local, []byte("bytes"), 0o644))

	runner := &fakeRunner{}
	u, err := NewUploader("rclone", "drive:courses", true, runner, nil)
	require.NoError(t, err)

	require.NoError(t, u.UploadFile(context.Background(), local, "intro/video.mp4"))
	require.Contains(t, runner.commandLines()[0], "copyto")
	require.Contains(t, runner.commandLines()[0], "drive:courses/intro/video.mp4")
	_, statErr := os.Stat(local)
	require.True(t, os.IsNotExist(statErr))
}

func TestUploadFileKeepsLocalOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "video.mp4")
	require.NoError(t, os.WriteFile(local, []byte("bytes"), 0o644))

	runner := &fakeRunner{fail: func(string, []string) error { return errors.New("exit status 3") }}
	u, err := NewUploader("rclone", "drive:courses", true, runner, nil)
	require.NoError(t, err)

	require.Error(t, u.UploadFile(context.Background(), local, "intro/video.mp4"))
	_, statErr := os.Stat(local)
	require.NoError(t, statErr)
}
