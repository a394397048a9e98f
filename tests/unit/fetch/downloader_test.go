package fetch_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"billsight/internal/config"
	"billsight/internal/domain"
	"billsight/internal/fetch"
)

func newDownloader() *fetch.Downloader {
	return fetch.NewDownloader(&config.FetcherConfig{TimeoutSecs: 5, MaxFileSizeMB: 1})
}

func TestDownloader_RejectsNonHTTPSchemes(t *testing.T) {
	d := newDownloader()

	for _, u := range []string{
		"file:///etc/passwd",
		"ftp://example.com/bill.pdf",
		"data:text/plain;base64,aGk=",
		"javascript:alert(1)",
	} {
		_, err := d.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, domain.ErrUnsupportedScheme, "url %s", u)
	}
}

func TestDownloader_DetectsPDFByMagicBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Content type lies; the magic bytes win.
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("%PDF-1.7 fake body"))
	}))
	defer srv.Close()

	doc, err := newDownloader().Fetch(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Equal(t, domain.MediaKindPDF, doc.Kind)
}

func TestDownloader_NonPDFIsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a})
	}))
	defer srv.Close()

	doc, err := newDownloader().Fetch(context.Background(), srv.URL)
	assert.NoError(t, err)
	assert.Equal(t, domain.MediaKindImage, doc.Kind)
}

func TestDownloader_RejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 1024*1024+1))
	}))
	defer srv.Close()

	_, err := newDownloader().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestDownloader_RejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newDownloader().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestDownloader_RejectsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newDownloader().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}
