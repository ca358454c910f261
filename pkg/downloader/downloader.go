package downloader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DownloaderConfig struct {
	Dir     string
	Timeout time.Duration
}

// Downloader fetches a document over HTTP into a uniquely named temporary
// file. The caller owns the file and must invoke the returned cleanup
// function on every exit path.
type Downloader struct {
	config DownloaderConfig
	client *http.Client
}

func NewWithConfig(config DownloaderConfig) (*Downloader, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Dir == "" {
		config.Dir = filepath.Join(os.TempDir(), "docqa-downloads")
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	return &Downloader{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Download fetches docURL and writes it to a temp file named by UUID with
// an extension guessed from the response content type, falling back to the
// URL path. The cleanup function removes the file and never fails loudly.
func (d *Downloader) Download(ctx context.Context, docURL string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("invalid document URL %q: %w", docURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download failed for %q: %w", docURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("download failed for %q: status %d", docURL, resp.StatusCode)
	}

	ext := guessExtension(resp.Header.Get("Content-Type"), docURL)
	filename := uuid.New().String() + ext
	filePath := filepath.Join(d.config.Dir, filename)

	f, err := os.Create(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(filePath)
		return "", nil, fmt.Errorf("failed to write download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filePath)
		return "", nil, fmt.Errorf("failed to close file: %w", err)
	}

	cleanup := func() { os.Remove(filePath) }
	return filePath, cleanup, nil
}

// guessExtension prefers the response content type, then the URL path, and
// lands on .bin when neither helps.
func guessExtension(contentType, docURL string) string {
	if contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		switch mediaType {
		case "application/pdf":
			return ".pdf"
		case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
			return ".docx"
		case "message/rfc822":
			return ".eml"
		case "text/html":
			return ".html"
		}
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}

	if u, err := url.Parse(docURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return strings.ToLower(ext)
		}
	}

	return ".bin"
}
