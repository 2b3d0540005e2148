// Package compositor renders placement plans into printable roll images.
package compositor

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// maxImageBytes limits a single design download to prevent memory exhaustion
const maxImageBytes = 64 * 1024 * 1024 // 64MB

// ImageFetcher downloads design images with bounded concurrency.
// Each distinct URL is fetched exactly once per batch regardless of how many
// placements reference it.
type ImageFetcher struct {
	httpClient *http.Client
	workers    int
	timeout    time.Duration
	logger     *zap.Logger
}

// ImageFetcherOption is a functional option for configuring ImageFetcher
type ImageFetcherOption func(*ImageFetcher)

// WithHTTPClient sets a custom HTTP client (for testing)
func WithHTTPClient(client *http.Client) ImageFetcherOption {
	return func(f *ImageFetcher) {
		f.httpClient = client
	}
}

// WithFetcherLogger sets a custom logger for ImageFetcher
func WithFetcherLogger(logger *zap.Logger) ImageFetcherOption {
	return func(f *ImageFetcher) {
		f.logger = logger
	}
}

// NewImageFetcher creates a fetcher running at most workers concurrent
// downloads, each bounded by timeout.
func NewImageFetcher(workers int, timeout time.Duration, opts ...ImageFetcherOption) *ImageFetcher {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	f := &ImageFetcher{
		httpClient: &http.Client{},
		workers:    workers,
		timeout:    timeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll downloads and decodes every distinct URL in the list.
// It returns the decoded images keyed by URL and the per-URL errors for
// downloads that failed. A failed URL never aborts the batch; the caller
// decides how to handle the gap.
func (f *ImageFetcher) FetchAll(ctx context.Context, urls []string) (map[string]image.Image, map[string]error) {
	unique := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}

	images := make(map[string]image.Image, len(unique))
	failures := make(map[string]error)
	if len(unique) == 0 {
		return images, failures
	}

	type result struct {
		url string
		img image.Image
		err error
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				img, err := f.fetchOne(ctx, url)
				results <- result{url: url, img: img, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range unique {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			f.logger.Warn("Design image fetch failed",
				zap.String("url", r.url),
				zap.Error(r.err))
			failures[r.url] = r.err
			continue
		}
		images[r.url] = r.img
	}

	// URLs that were never dispatched because the context was cancelled
	if err := ctx.Err(); err != nil {
		for _, u := range unique {
			if _, ok := images[u]; ok {
				continue
			}
			if _, ok := failures[u]; ok {
				continue
			}
			failures[u] = err
		}
	}

	return images, failures
}

// fetchOne downloads and decodes a single image within the per-fetch timeout.
func (f *ImageFetcher) fetchOne(ctx context.Context, url string) (image.Image, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid design URL: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download design: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("design download returned status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode design image: %w", err)
	}

	return img, nil
}
