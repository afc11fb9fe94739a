package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gradientharvest/internal/media"
)

// newDownloadCmd creates the 'download' subcommand, which materializes a
// course's videos on disk and optionally syncs them to the configured remote.
func newDownloadCmd() *cobra.Command {
	var (
		courseSlug string
		outputDir  string
		upload     bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Downloads a course's videos through ffmpeg",
		Long: `Downloads every persisted video of one course into a directory tree that
mirrors the chapter/subchapter ordering. Without --course, the harvested
courses are listed and one can be picked interactively.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownloadCommand(cmd, courseSlug, outputDir, upload)
		},
	}

	cmd.Flags().StringVar(&courseSlug, "course", "", "course slug to download (interactive pick when omitted)")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (defaults to download.dir)")
	cmd.Flags().BoolVar(&upload, "upload", false, "sync the downloaded course to the configured rclone remote")

	return cmd
}

func runDownloadCommand(cmd *cobra.Command, courseSlug, outputDir string, upload bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := appInstance.Cfg

	if courseSlug == "" {
		courseSlug, err = pickCourse(cmd)
		if err != nil {
			return err
		}
	}
	if outputDir == "" {
		outputDir = cfg.Download.Dir
	}

	downloader := media.NewDownloader(appInstance.Store, outputDir, cfg.Download.FFmpeg, nil, appInstance.Logger)
	res, err := downloader.DownloadCourse(ctx, courseSlug)
	if err != nil {
		return fmt.Errorf("download %s: %w", courseSlug, err)
	}

	appInstance.Logger.Info("download finished",
		zap.String("course", courseSlug),
		zap.Int("downloaded", res.Downloaded),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)

	if !upload {
		return nil
	}
	if cfg.Upload.Remote == "" {
		return fmt.Errorf("--upload requires upload.remote to be configured")
	}

	uploader, err := media.NewUploader(cfg.Upload.Rclone, cfg.Upload.Remote, cfg.Upload.DeleteAfter, nil, appInstance.Logger)
	if err != nil {
		return err
	}
	courseDir := media.CourseDir(outputDir, courseSlug)
	if err := uploader.UploadDir(ctx, courseDir); err != nil {
		return fmt.Errorf("upload %s: %w", courseDir, err)
	}
	return nil
}

// pickCourse lists the harvested courses that have videos and reads a 1-based
// pick from stdin.
func pickCourse(cmd *cobra.Command) (string, error) {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return "", err
	}
	out := cmd.OutOrStdout()

	courses, err := appInstance.Store.CoursesWithVideos(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("list courses: %w", err)
	}
	if len(courses) == 0 {
		return "", fmt.Errorf("no courses with videos in the database; run crawl first")
	}

	fmt.Fprintln(out, "Courses with downloadable videos:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, c := range courses {
		fmt.Fprintf(w, "  %d)\t%s\t%s\t%d videos\n", i+1, c.CourseName, c.Slug, c.VideoCount)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Pick a course [1-%d]: ", len(courses))

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read selection: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(courses) {
		return "", fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return courses[n-1].Slug, nil
}
