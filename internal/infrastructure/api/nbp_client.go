// Package api internal/infrastructure/api/nbp_client.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mjaworski/tripsettle/internal/config"
	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL    = "https://api.nbp.pl/api"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3

	// Table A holds the mid rates of the main traded currencies,
	// published every working day.
	ratesPath  = "/exchangerates/rates/a"
	tablesPath = "/exchangerates/tables/a"
)

// NBPClient fetches daily mid rates from the NBP Web API.
type NBPClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     logger.Logger
}

// NewNBPClient creates a new NBP Web API client configured by the nbp config
// section; zero-valued settings fall back to the documented defaults. A nil
// httpClient gets a default with the configured timeout so a stalled fetch
// surfaces as a rate source failure instead of hanging the settlement.
func NewNBPClient(cfg config.NBP, httpClient *http.Client, log logger.Logger) *NBPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}
	if log == nil {
		log = logger.Default()
	}

	return &NBPClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		logger:     log,
	}
}

// nbpRateResponse represents the single-currency response structure from the
// NBP rates endpoint
type nbpRateResponse struct {
	Table    string `json:"table"`
	Currency string `json:"currency"`
	Code     string `json:"code"`
	Rates    []struct {
		No            string          `json:"no"`
		EffectiveDate string          `json:"effectiveDate"`
		Mid           decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// nbpTableResponse represents the tables endpoint response: a JSON array of
// rate tables, each with an effective date and a list of currency mid rates
type nbpTableResponse []struct {
	Table         string `json:"table"`
	No            string `json:"no"`
	EffectiveDate string `json:"effectiveDate"`
	Rates         []struct {
		Currency string          `json:"currency"`
		Code     string          `json:"code"`
		Mid      decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// FetchRate retrieves the mid rate of a currency for an exact publication
// date. A 404 from NBP means no table was published for that date and is
// reported as entity.ErrNoPublication.
func (c *NBPClient) FetchRate(ctx context.Context, code string, date time.Time) (*entity.RateQuote, error) {
	reqURL := fmt.Sprintf("%s%s/%s/%s/?format=json",
		c.baseURL, ratesPath, strings.ToLower(code), date.Format(entity.DateLayout))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	return c.parseRate(body, code, date)
}

// FetchLatest retrieves the most recently published mid rate of a currency,
// with no date constraint.
func (c *NBPClient) FetchLatest(ctx context.Context, code string) (*entity.RateQuote, error) {
	reqURL := fmt.Sprintf("%s%s/%s/?format=json", c.baseURL, ratesPath, strings.ToLower(code))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	// The quote carries its publication date as the requested date; the
	// cache rewrites it to the effective lookup date before storing.
	return c.parseRate(body, code, time.Time{})
}

// FetchTable retrieves the full rate table published for a date.
func (c *NBPClient) FetchTable(ctx context.Context, date time.Time) (*entity.RateTable, error) {
	reqURL := fmt.Sprintf("%s%s/%s/?format=json", c.baseURL, tablesPath, date.Format(entity.DateLayout))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	return c.parseTable(body)
}

// FetchLatestTable retrieves the most recently published rate table.
func (c *NBPClient) FetchLatestTable(ctx context.Context) (*entity.RateTable, error) {
	reqURL := fmt.Sprintf("%s%s/?format=json", c.baseURL, tablesPath)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	return c.parseTable(body)
}

// get executes a GET request with retry logic and maps NBP status codes to
// the engine's typed errors.
func (c *NBPClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	var resp *http.Response
	var err error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Add("Accept", "application/json")

		resp, err = c.httpClient.Do(req)
		if err == nil {
			break
		}

		if attempt < c.maxRetries {
			backoffTime := time.Duration(attempt*attempt) * time.Second
			c.logger.Warn("NBP request failed, retrying", map[string]interface{}{
				"url":     reqURL,
				"attempt": attempt,
				"backoff": backoffTime.String(),
				"error":   err.Error(),
			})

			select {
			case <-time.After(backoffTime):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s", entity.ErrRateUnavailable, ctx.Err())
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: request failed after %d attempts: %s",
			entity.ErrRateUnavailable, c.maxRetries, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %s", entity.ErrRateUnavailable, err)
	}

	c.logger.Debug("NBP API response", map[string]interface{}{
		"url":    reqURL,
		"status": resp.StatusCode,
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// NBP answers 404 when no table exists for the requested date.
		return nil, entity.ErrNoPublication
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: NBP returned status %d: %s",
			entity.ErrRateUnavailable, resp.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

func (c *NBPClient) parseRate(body []byte, code string, requestedDate time.Time) (*entity.RateQuote, error) {
	var nbpResp nbpRateResponse
	if err := json.Unmarshal(body, &nbpResp); err != nil {
		return nil, fmt.Errorf("failed to decode NBP response: %w", err)
	}

	if len(nbpResp.Rates) == 0 {
		return nil, fmt.Errorf("%w: NBP response for %s contained no rates", entity.ErrRateUnavailable, code)
	}

	rateData := nbpResp.Rates[0]

	if rateData.Mid.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("invalid mid rate value: %s", rateData.Mid)
	}

	rateDate, err := time.Parse(entity.DateLayout, rateData.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse effective date '%s': %w", rateData.EffectiveDate, err)
	}

	if requestedDate.IsZero() {
		requestedDate = rateDate
	}

	return &entity.RateQuote{
		Currency:      strings.ToUpper(code),
		RequestedDate: requestedDate,
		RateDate:      rateDate,
		Mid:           rateData.Mid,
	}, nil
}

func (c *NBPClient) parseTable(body []byte) (*entity.RateTable, error) {
	var nbpResp nbpTableResponse
	if err := json.Unmarshal(body, &nbpResp); err != nil {
		return nil, fmt.Errorf("failed to decode NBP table response: %w", err)
	}

	if len(nbpResp) == 0 {
		return nil, fmt.Errorf("%w: NBP returned an empty table list", entity.ErrRateUnavailable)
	}

	tableData := nbpResp[0]

	effectiveDate, err := time.Parse(entity.DateLayout, tableData.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse effective date '%s': %w", tableData.EffectiveDate, err)
	}

	table := &entity.RateTable{
		No:            tableData.No,
		EffectiveDate: effectiveDate,
		Rates:         make([]entity.TableRate, 0, len(tableData.Rates)),
	}

	for _, r := range tableData.Rates {
		if r.Mid.LessThanOrEqual(decimal.Zero) {
			continue
		}
		table.Rates = append(table.Rates, entity.TableRate{
			Currency: r.Currency,
			Code:     strings.ToUpper(r.Code),
			Mid:      r.Mid,
		})
	}

	return table, nil
}
