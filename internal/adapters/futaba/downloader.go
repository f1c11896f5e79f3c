package futaba

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
)

// maxImageBytes caps a single download. Board attachments top out well below
// this; the limit guards against a misbehaving response.
const maxImageBytes = 32 << 20

// Downloader fetches attached images. When tempDir is non-empty every
// downloaded image is also written there for operator inspection. It
// implements core.ImageFetcher.
type Downloader struct {
	client  *http.Client
	tempDir string
	logger  *zap.Logger
}

// NewDownloader creates an image downloader. The timeout is per-image and
// intentionally shorter than the thread fetch timeout.
func NewDownloader(tempDir string, timeout time.Duration, logger *zap.Logger) (*Downloader, error) {
	if tempDir != "" {
		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
	}
	return &Downloader{
		client:  &http.Client{Timeout: timeout},
		tempDir: tempDir,
		logger:  logger,
	}, nil
}

// Download retrieves the full-size image bytes for ref. Failures wrap
// core.ErrTransport; the monitor treats any of them as a per-image skip.
func (d *Downloader) Download(ctx context.Context, ref core.ImageRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", core.ErrTransport, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d for %s", core.ErrTransport, resp.StatusCode, ref.URL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %v", core.ErrTransport, err)
	}

	if d.tempDir != "" {
		path := filepath.Join(d.tempDir, ref.Filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			d.logger.Warn("Failed to save image copy",
				zap.String("path", path),
				zap.Error(err))
		} else {
			d.logger.Debug("Saved image copy",
				zap.String("image", ref.ID),
				zap.String("path", path))
		}
	}

	return data, nil
}
