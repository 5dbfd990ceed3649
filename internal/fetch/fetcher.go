// Package fetch downloads release resources over HTTP with bounded
// retries. It has no knowledge of archives or checksums.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/shape-cli/shape-launcher/internal/config"
	"github.com/shape-cli/shape-launcher/pkg/logger"
)

// NotFoundError reports a permanent not-found response from the release
// store. It is never retried.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("release not found: %s", e.URL)
}

// FetchError reports a download that failed after exhausting retries,
// wrapping the last observed failure.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads resources to local files, retrying transient
// failures with a fixed inter-attempt delay.
type Fetcher struct {
	client *retryablehttp.Client
	log    *logger.Logger
}

// NewFetcher configures the retrying HTTP client from release settings.
func NewFetcher(cfg config.ReleaseConfig) *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxAttempts - 1
	client.RetryWaitMin = cfg.RetryDelay
	client.RetryWaitMax = cfg.RetryDelay
	client.CheckRetry = checkRetry
	client.Logger = nil

	return &Fetcher{
		client: client,
		log:    logger.NewLogger("fetcher"),
	}
}

// checkRetry treats not-found responses as permanent and everything
// else short of success as transient.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	}
	return true, nil
}

// Fetch downloads the resource at url into destPath. On failure no file
// is left at destPath, so a partial download is never mistaken for a
// complete artifact.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string) error {
	f.log.WithFields(logger.Fields{
		"url":  url,
		"dest": destPath,
	}).Debug("Downloading file")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.WithError(err).Error("Download failed after retries")
		return &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return &NotFoundError{URL: url}
	}
	if resp.StatusCode != http.StatusOK {
		return &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	dest, err := os.Create(destPath)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}

	written, err := io.Copy(dest, resp.Body)
	if err != nil {
		dest.Close()
		os.Remove(destPath)
		return &FetchError{URL: url, Err: err}
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return &FetchError{URL: url, Err: err}
	}

	f.log.WithField("bytes", written).Debug("File download completed")
	return nil
}
