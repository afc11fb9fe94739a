package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Uploader syncs downloaded course directories to an rclone remote.
type Uploader struct {
	rclone      string
	remote      string
	deleteAfter bool
	runner      Runner
	logger      *zap.Logger
}

// NewUploader builds an Uploader targeting the given rclone remote, e.g.
// "drive:courses". When deleteAfter is set, local files are removed only
// after a confirmed successful upload.
func NewUploader(rclonePath, remote string, deleteAfter bool, runner Runner, logger *zap.Logger) (*Uploader, error) {
	if remote == "" {
		return nil, fmt.Errorf("upload remote is required")
	}
	if rclonePath == "" {
		rclonePath = "rclone"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		rclone:      rclonePath,
		remote:      remote,
		deleteAfter: deleteAfter,
		runner:      runner,
		logger:      logger,
	}, nil
}

// UploadFile copies one local file to <remote>/<relPath>. The local copy is
// deleted only when the tool exits successfully and delete-after is enabled.
func (u *Uploader) UploadFile(ctx context.Context, localPath, relPath string) error {
	dest := u.remote + "/" + filepath.ToSlash(relPath)
	if err := u.runner.Run(ctx, u.rclone, "copyto", localPath, dest); err != nil {
		return fmt.Errorf("upload %s: %w", localPath, err)
	}
	u.logger.Info("uploaded", zap.String("local", localPath), zap.String("remote", dest))

	if u.deleteAfter {
		if err := os.Remove(localPath); err != nil {
			return fmt.Errorf("remove after upload: %w", err)
		}
		u.logger.Info("removed local copy", zap.String("local", localPath))
	}
	return nil
}

// UploadDir walks a downloaded course directory and uploads every file,
// preserving the relative layout. The first failed upload stops the walk so
// delete-after never outruns a broken remote.
func (u *Uploader) UploadDir(ctx context.Context, localDir string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filepath.Dir(localDir), path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		return u.UploadFile(ctx, path, rel)
	})
}
