// Package jadlog implements the Tracker port against Jadlog's institutional
// site. The tracking endpoint is the same partial-HTML fragment the public
// tracking page loads via AJAX; it only answers to requests that look like
// in-page XHR calls, hence the header set below.
package jadlog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

const (
	DefaultBaseURL = "https://www.jadlog.com.br"

	trackingPath   = "/siteInstitucional/tracking_dev.jad"
	refererPath    = "/siteInstitucional/tracking.jad"
	defaultTimeout = 15 * time.Second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// Data rows carry exactly one cell per column of the tracking grid:
	// timestamp, origin, status, destination, document. Header and
	// decoration rows have no gridcell elements (or a different count)
	// and are skipped.
	cellsPerRow = 5
)

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient returns a Tracker implementation for Jadlog. baseURL is the site
// root; pass an empty string for the production site.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// Fetch issues a single best-effort GET for the code's tracking fragment and
// parses the history table. No retries, no caching: each call stands alone.
func (c *Client) Fetch(ctx context.Context, trackingCode string) ([]domain.TrackingEvent, error) {
	endpoint := fmt.Sprintf("%s%s?cte=%s", c.baseURL, trackingPath, url.QueryEscape(trackingCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("jadlog: build request: %w", err)
	}
	req.Header.Set("Accept", "text/html, *//*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+refererPath)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jadlog: %w: %v", domain.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("jadlog: %w: unexpected status %d", domain.ErrCarrierUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jadlog: %w: %v", domain.ErrMalformedResponse, err)
	}

	events := parseEvents(doc)
	c.log.Debug().
		Str("tracking_code", trackingCode).
		Int("events", len(events)).
		Msg("tracking page fetched")

	// Zero rows is not an error: codes with no tracking history yet render
	// an empty grid.
	return events, nil
}

func parseEvents(doc *goquery.Document) []domain.TrackingEvent {
	events := []domain.TrackingEvent{}
	doc.Find(`tr[role="row"]`).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(`td[role="gridcell"]`)
		if cells.Length() != cellsPerRow {
			return
		}
		fields := make([]string, 0, cellsPerRow)
		cells.Each(func(_ int, cell *goquery.Selection) {
			fields = append(fields, strings.TrimSpace(cell.Text()))
		})
		events = append(events, domain.TrackingEvent{
			Timestamp:         fields[0],
			OriginPoint:       fields[1],
			Status:            fields[2],
			DestinationPoint:  fields[3],
			DocumentReference: fields[4],
		})
	})
	return events
}
