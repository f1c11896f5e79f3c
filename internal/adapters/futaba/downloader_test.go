package futaba

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

func TestDownloaderDownload(t *testing.T) {
	t.Parallel()

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/b/src/1717210000000.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	d, err := NewDownloader("", 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ref := core.ImageRef{
		ID:       "1717210000000.jpg",
		Filename: "1717210000000.jpg",
		URL:      srv.URL + "/b/src/1717210000000.jpg",
	}
	data, err := d.Download(context.Background(), ref)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("downloaded %v, want %v", data, payload)
	}
}

func TestDownloaderKeepsCopyInTempDir(t *testing.T) {
	t.Parallel()

	payload := []byte("image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d, err := NewDownloader(dir, 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ref := core.ImageRef{ID: "a.jpg", Filename: "a.jpg", URL: srv.URL + "/a.jpg"}
	if _, err := d.Download(context.Background(), ref); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	saved, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	if err != nil {
		t.Fatalf("saved copy missing: %v", err)
	}
	if !bytes.Equal(saved, payload) {
		t.Errorf("saved copy = %v, want %v", saved, payload)
	}
}

func TestDownloaderNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d, err := NewDownloader("", 5*time.Second, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ref := core.ImageRef{ID: "gone.jpg", Filename: "gone.jpg", URL: srv.URL + "/gone.jpg"}
	if _, err := d.Download(context.Background(), ref); !errors.Is(err, core.ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}
