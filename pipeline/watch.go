package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/depthnoise/logging"
	"go.viam.com/depthnoise/rimage"
)

// WatchDir publishes every depth image created or rewritten in dir into mailbox until ctx is
// done. Writers should move finished files into dir; files that do not decode yet are skipped.
func WatchDir(ctx context.Context, dir string, mailbox *LatestFrame, logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(watcher.Close)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "cannot watch %q", dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isDepthImageFile(event.Name) {
				continue
			}
			frame, err := readWatchedFrame(event.Name)
			if err != nil {
				logger.Debugw("skipping depth image", "path", event.Name, "error", err)
				continue
			}
			mailbox.Publish(frame)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("error watching directory", "dir", dir, "error", err)
		}
	}
}

func isDepthImageFile(fn string) bool {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".png", ".tif", ".tiff":
		return true
	default:
		return false
	}
}

func readWatchedFrame(fn string) (*rimage.DepthFrame, error) {
	info, err := os.Stat(fn)
	if err != nil {
		return nil, err
	}
	frame, err := rimage.ReadDepthFrameFile(fn)
	if err != nil {
		return nil, err
	}
	frame.Meta.FrameID = filepath.Base(fn)
	frame.Meta.CapturedAt = info.ModTime().UTC()
	return frame, nil
}
