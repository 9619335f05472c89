package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Checker periodically sends a HEAD request to every source URL and
// records whether the dataset is still published there.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker that will verify source URLs every interval.
func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source with a URL and persists the result.
// Sources without URL are skipped.
func (c *Checker) CheckAll(ctx context.Context) {
	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return
	}

	var ok, failed, skipped, stale int
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		if src.SourceURL == "" {
			skipped++
			continue
		}

		res := c.checkOne(ctx, src.SourceURL)
		if err := c.sources.UpdateCheck(src.AdapterID, res); err != nil {
			c.logger.Error("source check: update", "adapter", src.AdapterID, "error", err)
		}

		if res.Status >= 200 && res.Status < 400 {
			ok++
			if !res.Modified.IsZero() && src.FetchedAt != nil && res.Modified.Unix() > *src.FetchedAt {
				stale++
				c.logger.Info("newer data published",
					"adapter", src.AdapterID,
					"dataset", src.Dataset,
					"modified", res.Modified,
				)
			}
			continue
		}
		failed++
		c.logger.Warn("source unreachable",
			"adapter", src.AdapterID,
			"dataset", src.Dataset,
			"url", src.SourceURL,
			"status", res.Status,
			"error", res.Err,
		)
	}

	if ok+failed+skipped > 0 {
		c.logger.Info("source check complete", "ok", ok, "failed", failed, "skipped", skipped, "stale", stale)
	}
}

// checkOne sends a single HEAD request. On network error, Status is 0.
func (c *Checker) checkOne(ctx context.Context, url string) CheckResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return CheckResult{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return CheckResult{Err: fmt.Errorf("HEAD %s: %w", url, err)}
	}
	resp.Body.Close()

	res := CheckResult{Status: resp.StatusCode}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			res.Modified = t
		}
	}
	return res
}
