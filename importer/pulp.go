package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gitlab.com/katello-tools/errata-tracker/errata"
)

const (
	PulpRepositoriesPath = "pulp/api/v2/repositories"
	ErratumUnitType      = "erratum"
)

// SearchCriteria is the criteria document of a pulp unit search.
type SearchCriteria struct {
	TypeIDs []string `json:"type_ids"`
	Limit   int      `json:"limit,omitempty"`
	Skip    int      `json:"skip,omitempty"`
}

type searchRequest struct {
	Criteria SearchCriteria `json:"criteria"`
}

// Unit is a content unit returned by a pulp search.
type Unit struct {
	Metadata errata.Payload `json:"metadata"`
}

// StatusError is returned for HTTP responses that are not successful.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pulp responded with %d: %s", e.Code, e.Body)
}

// PulpClient talks to the pulp content server. It holds all connection
// settings itself, callers construct one per server.
type PulpClient struct {
	Endpoint        string
	HTTPClient      *http.Client
	Headers         map[string]string
	PageSize        int
	MaxElapsed      time.Duration
	InitialInterval time.Duration
}

func NewPulpClient(config errata.PulpConfig, httpClient *http.Client) *PulpClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &PulpClient{
		Endpoint:        config.URL,
		HTTPClient:      httpClient,
		Headers:         config.Headers,
		PageSize:        config.PageSize,
		MaxElapsed:      config.MaxElapsed,
		InitialInterval: backoff.DefaultInitialInterval,
	}
}

type RequestOptionsFunc func(*SearchCriteria) error

func Limit(limit int) RequestOptionsFunc {
	return func(c *SearchCriteria) error {
		if limit < 0 {
			return fmt.Errorf("limit must not be negative, got %d", limit)
		}
		c.Limit = limit
		return nil
	}
}

func Skip(skip int) RequestOptionsFunc {
	return func(c *SearchCriteria) error {
		if skip < 0 {
			return fmt.Errorf("skip must not be negative, got %d", skip)
		}
		c.Skip = skip
		return nil
	}
}

func buildSearchUrl(endpoint, repository string) (string, error) {
	apiUrl, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint: %w", err)
	}
	if apiUrl.Scheme == "" || apiUrl.Host == "" {
		return "", fmt.Errorf("endpoint %q must be an absolute url", endpoint)
	}
	return apiUrl.JoinPath(PulpRepositoriesPath, repository, "search/units/").String(), nil
}

func (c *PulpClient) defaultHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json; charset=utf-8")
	for key, value := range c.Headers {
		headers.Set(key, value)
	}
	return headers
}

// GetErrata returns all erratum payloads of a pulp repository, requesting
// them page by page.
func (c *PulpClient) GetErrata(ctx context.Context, repository string) ([]errata.Payload, error) {
	pageSize := c.PageSize
	if pageSize < 1 {
		pageSize = 100
	}

	payloads := []errata.Payload{}
	for skip := 0; ; skip += pageSize {
		units, err := c.SearchUnits(ctx, repository, Limit(pageSize), Skip(skip))
		if err != nil {
			return nil, err
		}
		for _, unit := range units {
			payloads = append(payloads, unit.Metadata)
		}
		slog.Debug("fetched errata page", "repository", repository, "skip", skip, "units", len(units))
		if len(units) < pageSize {
			break
		}
	}
	return payloads, nil
}

// SearchUnits runs a single erratum unit search. Transport errors and server
// errors are retried with exponential backoff.
func (c *PulpClient) SearchUnits(ctx context.Context, repository string, options ...RequestOptionsFunc) ([]Unit, error) {
	criteria := SearchCriteria{TypeIDs: []string{ErratumUnitType}}
	for _, option := range options {
		if err := option(&criteria); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	requestUrl, err := buildSearchUrl(c.Endpoint, repository)
	if err != nil {
		return nil, fmt.Errorf("failed to build url: %w", err)
	}
	body, err := json.Marshal(searchRequest{Criteria: criteria})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search criteria: %w", err)
	}

	var units []Unit
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestUrl, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header = c.defaultHeaders()

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("failure in HTTP request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			statusErr := &StatusError{Code: resp.StatusCode, Body: string(respBody)}
			if resp.StatusCode >= http.StatusInternalServerError {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		units = nil
		if err := json.NewDecoder(resp.Body).Decode(&units); err != nil {
			return backoff.Permanent(fmt.Errorf("could not decode search response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	if c.MaxElapsed > 0 {
		bo.MaxElapsedTime = c.MaxElapsed
	}
	if c.InitialInterval > 0 {
		bo.InitialInterval = c.InitialInterval
	}
	err = backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		slog.Warn("retrying pulp request", "repository", repository, "next", next, "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("could not search errata of %s: %w", repository, err)
	}
	return units, nil
}
