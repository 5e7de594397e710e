// Package telemetry provides the metric-source adapters: an HTTP client for
// the remote telemetry provider and a SQLite-backed local source for
// development and seeding. Both satisfy domain.MetricSource and
// domain.InstanceService.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/util"
)

// Client talks to the telemetry provider's JSON API. Rate-limit responses
// (HTTP 429/503) are mapped to domain.ErrRateLimited here, at the adapter
// boundary, so the engine dispatches on a single closed tag.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *util.ServiceLogger
}

func NewClient(baseURL string, timeout time.Duration, logger *util.ServiceLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type samplesResponse struct {
	Samples []struct {
		Timestamp int64    `json:"timestamp"`
		Value     *float64 `json:"value"`
	} `json:"samples"`
}

func (c *Client) FetchChunk(ctx context.Context, instanceID string, start, end time.Time, periodSeconds int) ([]domain.RawSample, error) {

	params := url.Values{}
	params.Set("start", strconv.FormatInt(start.Unix(), 10))
	params.Set("end", strconv.FormatInt(end.Unix(), 10))
	params.Set("period", strconv.Itoa(periodSeconds))

	endpoint := fmt.Sprintf("%s/v1/instances/%s/metrics/cpu?%s", c.baseURL, url.PathEscape(instanceID), params.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var decoded samplesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("error decoding provider response: %w", err)
	}

	samples := make([]domain.RawSample, 0, len(decoded.Samples))
	for _, s := range decoded.Samples {
		samples = append(samples, domain.RawSample{
			Timestamp: time.Unix(s.Timestamp, 0).UTC(),
			Value:     s.Value,
		})
	}
	return samples, nil
}

func (c *Client) ResolveInstance(ctx context.Context, identifier string) (domain.Instance, error) {

	var endpoint string
	if net.ParseIP(identifier) != nil {
		endpoint = fmt.Sprintf("%s/v1/instances?ip=%s", c.baseURL, url.QueryEscape(identifier))
	} else {
		endpoint = fmt.Sprintf("%s/v1/instances/%s", c.baseURL, url.PathEscape(identifier))
	}

	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Instance{}, err
	}

	var instance domain.Instance
	if err := json.Unmarshal(body, &instance); err != nil {
		return domain.Instance{}, fmt.Errorf("error decoding provider response: %w", err)
	}
	return instance, nil
}

func (c *Client) SetTerminationProtection(ctx context.Context, instanceID string, enabled bool) error {

	endpoint := fmt.Sprintf("%s/v1/instances/%s/termination-protection", c.baseURL, url.PathEscape(instanceID))

	payload, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return err
	}

	_, err = c.doRequest(ctx, http.MethodPut, endpoint, payload)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		c.logger.LogEvent(util.LOG_LEVEL_WARN, "Provider throttled request.", method, req.URL.Path, "HTTP", resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrInstanceNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Provider request failed.", method, req.URL.Path, "HTTP", resp.StatusCode)
		return nil, fmt.Errorf("provider request failed: HTTP %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
