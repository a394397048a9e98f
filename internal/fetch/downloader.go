package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"billsight/internal/config"
	"billsight/internal/domain"
	"billsight/internal/port"
)

// Downloader fetches bill documents over HTTP(S). It implements
// port.DocumentFetcher.
type Downloader struct {
	client      *http.Client
	maxBodySize int64
}

// NewDownloader creates a Downloader with the configured timeout and
// body size cap.
func NewDownloader(cfg *config.FetcherConfig) *Downloader {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxSize := cfg.MaxFileSizeMB * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 50 * 1024 * 1024
	}
	return &Downloader{
		client:      &http.Client{Timeout: timeout},
		maxBodySize: maxSize,
	}
}

func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*port.FetchedDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedScheme, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > d.maxBodySize {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, resp.ContentLength)
	}

	// Read one byte past the cap so an unreported oversize body is
	// still detected.
	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrDownloadFailed, err)
	}
	if int64(len(data)) > d.maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFileTooLarge, d.maxBodySize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", domain.ErrDownloadFailed)
	}

	return &port.FetchedDocument{
		Bytes: data,
		Kind:  detectMediaKind(data),
	}, nil
}

var pdfMagic = []byte("%PDF")

func detectMediaKind(data []byte) domain.MediaKind {
	if bytes.HasPrefix(data, pdfMagic) {
		return domain.MediaKindPDF
	}
	return domain.MediaKindImage
}
