package capture

import (
	"context"
	"fmt"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// fileWriter is satisfied by *store.Exporter.
type fileWriter interface {
	ExportFile(uid model.UID, ext string, data []byte) (string, error)
}

// SnapshotPNG captures the preview page of s and stores it as <uid>.png.
func SnapshotPNG(ctx context.Context, shot Shooter, out fileWriter, s model.Snapshot, opts Options) (string, error) {
	png, err := shot.Screenshot(ctx, opts)
	if err != nil {
		return "", err
	}
	if len(png) == 0 {
		return "", fmt.Errorf("capture: empty screenshot for %s", s.UID)
	}
	path, err := out.ExportFile(s.UID, ".png", png)
	if err != nil {
		return "", fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("preview captured", "uid", s.UID.String(), "path", path, "bytes", len(png))
	return path, nil
}
