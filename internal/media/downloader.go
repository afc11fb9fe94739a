// Package media downloads course videos through ffmpeg and optionally syncs
// them to a remote with rclone. Both tools are external collaborators driven
// by exit status; no media processing happens in-process.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"gradientharvest/internal/store"
)

// Runner executes an external command and reports its exit status as an
// error. It exists so tests can intercept tool invocations.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, discarding tool output.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Downloader materializes a course's videos on disk, ordered by
// (chapter order, subchapter order) so the filesystem layout mirrors the
// course structure.
type Downloader struct {
	store     *store.Store
	outputDir string
	ffmpeg    string
	runner    Runner
	logger    *zap.Logger
}

// NewDownloader builds a Downloader and probes for ffmpeg. A missing ffmpeg
// is a warning, not an error; the failure surfaces per video.
func NewDownloader(st *store.Store, outputDir, ffmpegPath string, runner Runner, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	d := &Downloader{
		store:     st,
		outputDir: outputDir,
		ffmpeg:    ffmpegPath,
		runner:    runner,
		logger:    logger,
	}
	if err := runner.Run(context.Background(), ffmpegPath, "-version"); err != nil {
		logger.Warn("ffmpeg not found or not working; downloads will fail",
			zap.String("path", ffmpegPath), zap.Error(err))
	}
	return d
}

// Result tallies one DownloadCourse run.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// DownloadCourse downloads every persisted video of the course into
// <out>/<course>/<NN_chapter>/<NN_subchapter>.mp4, skipping files that
// already exist. Per-video failures are logged and counted, never fatal.
func (d *Downloader) DownloadCourse(ctx context.Context, courseSlug string) (Result, error) {
	var res Result

	videos, err := d.store.CourseVideos(ctx, courseSlug)
	if err != nil {
		return res, err
	}
	if len(videos) == 0 {
		return res, fmt.Errorf("no videos found for course %s", courseSlug)
	}

	courseDir := CourseDir(d.outputDir, courseSlug)
	d.logger.Info("downloading course videos",
		zap.String("course", videos[0].CourseName),
		zap.Int("videos", len(videos)),
		zap.String("dir", courseDir),
	)

	for _, video := range videos {
		target := d.videoPath(courseDir, video)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return res, fmt.Errorf("create chapter dir: %w", err)
		}

		if _, err := os.Stat(target); err == nil {
			d.logger.Info("skipping existing file", zap.String("path", target))
			res.Skipped++
			continue
		}

		if err := d.downloadVideo(ctx, video, target); err != nil {
			d.logger.Error("video download failed",
				zap.String("subchapter", video.SubchapterName),
				zap.String("video", video.VideoID),
				zap.Error(err),
			)
			res.Failed++
			continue
		}
		d.logger.Info("downloaded", zap.String("subchapter", video.SubchapterName))
		res.Downloaded++
	}
	return res, nil
}

// videoPath lays out <courseDir>/<NN_chapter>/<NN_subchapter>.mp4 with
// zero-padded order prefixes preserving the catalog sequence.
func (d *Downloader) videoPath(courseDir string, video store.CourseVideo) string {
	chapterDir := fmt.Sprintf("%02d_%s", video.ChapterOrder, sanitize(video.ChapterName))
	filename := fmt.Sprintf("%02d_%s.mp4", video.SubchapterOrder, sanitize(video.SubchapterName))
	return filepath.Join(courseDir, chapterDir, filename)
}

// downloadVideo remuxes the first working source URL into target. The direct
// URL is tried before the DRM variant; first success wins.
func (d *Downloader) downloadVideo(ctx context.Context, video store.CourseVideo, target string) error {
	urls := sourceURLs(video)
	if len(urls) == 0 {
		return fmt.Errorf("video %s has no source url", video.VideoID)
	}

	var lastErr error
	for _, url := range urls {
		if err := d.remux(ctx, url, target); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (d *Downloader) remux(ctx context.Context, url, target string) error {
	// Copy streams without re-encoding; aac_adtstoasc fixes the audio
	// bitstream when remuxing HLS into mp4.
	return d.runner.Run(ctx, d.ffmpeg,
		"-y",
		"-i", url,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		target,
	)
}

// sourceURLs returns the candidate URLs in try order: the direct URL
// (token-suffixed on the streaming CDN), then the DRM URL with its token.
func sourceURLs(video store.CourseVideo) []string {
	var urls []string
	if video.VideoURL != "" {
		url := video.VideoURL
		if strings.Contains(url, "stream.mux.com") && video.Token != "" {
			url = url + "?token=" + video.Token
		}
		urls = append(urls, url)
	}
	if video.DRMVideoURL != "" && video.DRMToken != "" {
		urls = append(urls, video.DRMVideoURL+"?token="+video.DRMToken)
	}
	return urls
}

// CourseDir returns the directory DownloadCourse writes a course into.
func CourseDir(outputDir, courseSlug string) string {
	return filepath.Join(outputDir, sanitize(courseSlug))
}

// sanitize turns a display name into a safe path segment. Underscores keep
// the NN_name layout readable.
func sanitize(name string) string {
	s := slug.Make(name)
	return strings.ReplaceAll(s, "-", "_")
}
