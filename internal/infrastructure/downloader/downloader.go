package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/sync/errgroup"

	"filtermerge/internal/domain"
	"filtermerge/internal/ports"
)

// Downloader fetches filter lists concurrently with bounded parallelism and
// exponential-backoff retries.
type Downloader struct {
	client      *http.Client
	maxParallel int
	maxRetries  uint64
	logger      *slog.Logger
}

var _ ports.ListFetcher = (*Downloader)(nil)

// New builds a downloader; nil client gets a sane default.
func New(client *http.Client, maxParallel int, maxRetries int, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxParallel <= 0 {
		maxParallel = 5
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Downloader{
		client:      client,
		maxParallel: maxParallel,
		maxRetries:  uint64(maxRetries),
		logger:      logger,
	}
}

// Fetch downloads every source. A failed list yields a payload with Err set
// rather than failing the whole batch; the result slice always has one entry
// per source, in source order.
func (d *Downloader) Fetch(ctx context.Context, sources []domain.ListSource) ([]domain.ListPayload, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	payloads := make([]domain.ListPayload, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxParallel)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			content, err := d.fetchOne(gctx, source)
			payloads[i] = domain.ListPayload{
				Name:    source.Name,
				URL:     source.URL,
				Content: content,
				Err:     err,
			}
			if err != nil {
				d.warn("list download failed", "list", source.Name, "url", source.URL, "error", err)
			} else {
				d.info("list downloaded", "list", source.Name, "bytes", len(content))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return payloads, fmt.Errorf("download lists: %w", err)
	}
	return payloads, nil
}

func (d *Downloader) fetchOne(ctx context.Context, source domain.ListSource) (string, error) {
	var content string

	operation := func() error {
		body, err := d.get(ctx, source.URL)
		if err != nil {
			return err
		}
		content = body
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return content, nil
}

func (d *Downloader) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", "filtermerge/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request list: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		// Retrying these never helps.
		return "", backoff.Permanent(fmt.Errorf("list source returned %s", resp.Status))
	default:
		return "", fmt.Errorf("list source returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}

func (d *Downloader) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Downloader) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
