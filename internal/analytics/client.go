package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/facultydash/internal/models"
)

// Endpoint names, as shown to users when a fetch fails
const (
	SubjectAveragesEndpoint  = "subject_averages"
	RiskDistributionEndpoint = "risk_distribution"
)

const graphsPath = "/api/results/graphs/"

// maxBodySize caps how much of a response body is read
const maxBodySize = 5 * 1024 * 1024

// EndpointError is a non-2xx response from one of the graph endpoints
type EndpointError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *EndpointError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, status)
}

// Observer is notified of every completed endpoint request
type Observer interface {
	ObserveFetch(endpoint string, status int, elapsed time.Duration)
}

// Client fetches pre-aggregated analytics from the results backend
type Client struct {
	BaseURL    string
	Observer   Observer
	httpClient *http.Client
}

// NewClient creates a new analytics client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAnalytics retrieves subject averages and the risk distribution for a
// batch. Both requests run concurrently; the first failure cancels the other
// and nothing is returned for the batch.
func (c *Client) FetchAnalytics(ctx context.Context, batch models.Batch) (*models.Analytics, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}

	var subjects, risk []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.get(gctx, SubjectAveragesEndpoint, batch)
		subjects = body
		return err
	})
	g.Go(func() error {
		body, err := c.get(gctx, RiskDistributionEndpoint, batch)
		risk = body
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.Analytics{
		Batch:     batch,
		FetchedAt: time.Now(),
	}

	decoded, err := DecodeSubjects(subjects)
	if err != nil {
		slog.Warn("Subject payload not recognized, using empty data", "batch", batch.Label(), "err", err)
	}
	result.Subjects = decoded.Cards
	if result.Subjects == nil {
		result.Subjects = []models.SubjectCard{}
	}

	result.Risk, err = DecodeRisk(risk)
	if err != nil {
		slog.Warn("Risk payload not recognized, using empty data", "batch", batch.Label(), "err", err)
	}

	slog.Debug("Analytics fetched",
		"batch", batch.Label(),
		"shape", decoded.Shape,
		"subjects", len(result.Subjects),
		"risk_categories", len(result.Risk.Labels))

	return result, nil
}

func (c *Client) get(ctx context.Context, endpoint string, batch models.Batch) ([]byte, error) {
	url := c.BaseURL + graphsPath + endpoint + "?" + batch.Query().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return nil, fmt.Errorf("%s: failed to fetch: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &EndpointError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", endpoint, err)
	}
	return body, nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.Observer != nil {
		c.Observer.ObserveFetch(endpoint, status, time.Since(start))
	}
}

// FailedEndpoint returns the endpoint named by err, if any
func FailedEndpoint(err error) (string, bool) {
	var epErr *EndpointError
	if errors.As(err, &epErr) {
		return epErr.Endpoint, true
	}
	return "", false
}
