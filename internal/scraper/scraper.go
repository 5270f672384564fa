// Package scraper fetches the university's offered-courses page and turns
// its HTML table into catalog sections. It is the only component that
// performs network I/O toward the portal.
package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nsu-tools/course-scheduler-api/internal/models"
	"github.com/nsu-tools/course-scheduler-api/pkg/config"
	appErrors "github.com/nsu-tools/course-scheduler-api/pkg/errors"
)

// Client fetches and parses the offered-courses page.
type Client struct {
	cfg        config.ScraperConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a scraper client from configuration.
func NewClient(cfg config.ScraperConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Fetch downloads and parses the current catalog. A small random delay is
// honoured before the request so refresh loops stay polite toward the
// portal. The returned slice is a fresh snapshot the caller owns; skipped
// counts table rows that could not be parsed into sections.
func (c *Client) Fetch(ctx context.Context) (sections []models.Section, skipped int, err error) {
	if err := c.politeDelay(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build catalog request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to fetch offered courses page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("offered courses page returned HTTP %d", resp.StatusCode))
	}

	sections, skipped, err = ParseSections(resp.Body, c.cfg.CrossLists)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to parse offered courses page")
	}

	c.logger.Info("catalog fetched",
		zap.Int("sections", len(sections)),
		zap.Int("skipped_rows", skipped),
	)
	return sections, skipped, nil
}

func (c *Client) politeDelay(ctx context.Context) error {
	min := c.cfg.DelayMin
	max := c.cfg.DelayMax
	if max <= min {
		return nil
	}
	delay := min + time.Duration(rand.Int63n(int64(max-min)))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
