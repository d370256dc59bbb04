// Package scanner is the boundary to the external vulnerability scanner.
// The patcher core only depends on the Scanner interface; the concrete
// implementation fetches findings from a JSON feed.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/telemetry"
	"github.com/cortexlinux/cortex-patch-go/internal/vuln"
)

// Scanner produces the current set of known vulnerabilities affecting
// installed packages.
type Scanner interface {
	Scan(ctx context.Context) ([]vuln.Vulnerability, error)
}

// FeedScanner fetches vulnerabilities from an HTTP JSON feed: an array of
// objects with cve_id, package, severity, and description fields.
type FeedScanner struct {
	cfg    *config.Config
	log    *zap.Logger
	client *http.Client
}

// NewFeedScanner creates a feed scanner with an OTel-instrumented HTTP
// transport.
func NewFeedScanner(cfg *config.Config, log *zap.Logger) *FeedScanner {
	return &FeedScanner{
		cfg: cfg,
		log: log,
		client: &http.Client{
			Timeout:   time.Duration(cfg.Scanner.Timeout) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Scan fetches and decodes the vulnerability feed.
func (s *FeedScanner) Scan(ctx context.Context) ([]vuln.Vulnerability, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "FeedScanner.Scan")
	defer span.End()

	if s.cfg.Scanner.FeedURL == "" {
		return nil, fmt.Errorf("scanner feed URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Scanner.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vulnerability feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vulnerability feed returned HTTP %d", resp.StatusCode)
	}

	var vulns []vuln.Vulnerability
	if err := json.NewDecoder(resp.Body).Decode(&vulns); err != nil {
		return nil, fmt.Errorf("failed to decode vulnerability feed: %w", err)
	}

	s.log.Info("Vulnerability scan completed", zap.Int("vulnerabilities", len(vulns)))
	return vulns, nil
}
