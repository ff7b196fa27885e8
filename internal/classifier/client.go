// Package classifier talks to the external transaction classification
// service over HTTP.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smartbud-dev/smartbud/internal/log"
	"github.com/smartbud-dev/smartbud/internal/model"
)

const (
	classifyPath = "/api/csv/classify"
	pingPath     = "/api/csv/ping"

	// maxErrorBody bounds how much of a failed response is kept for the error.
	maxErrorBody = 4 << 10
)

var (
	// ErrClassifierStatus is wrapped by StatusError.
	ErrClassifierStatus = errors.New("classifier returned non-2xx status")
	// ErrTransport is wrapped by failures to reach the classifier or read its
	// response.
	ErrTransport = errors.New("classifier unavailable")
)

// StatusError reports a non-2xx response from the classifier.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrClassifierStatus, e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error { return ErrClassifierStatus }

// Classifier assigns categories to line item descriptions.
type Classifier interface {
	Classify(ctx context.Context, items []model.LineItem, desired []string) (model.ClassifiedItems, error)
}

// wireLineItem is a line item as the classifier expects it. Amounts travel
// as JSON numbers.
type wireLineItem struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Debit       bool    `json:"debit"`
	Amount      float64 `json:"amount"`
}

// Request is the body of POST /api/csv/classify.
type Request struct {
	LineItems         []wireLineItem `json:"line_items"`
	DesiredCategories []string       `json:"desired_categories"`
}

// Response is the body of a successful classify call.
type Response struct {
	ClassifiedItems model.ClassifiedItems `json:"classified_items"`
}

// NewRequest builds the wire request for items and desired categories.
func NewRequest(items []model.LineItem, desired []string) Request {
	req := Request{
		LineItems:         make([]wireLineItem, len(items)),
		DesiredCategories: desired,
	}
	if req.DesiredCategories == nil {
		req.DesiredCategories = []string{}
	}
	for i, item := range items {
		req.LineItems[i] = wireLineItem{
			Date:        item.Date,
			Description: item.Description,
			Debit:       item.Debit,
			Amount:      item.Amount.InexactFloat64(),
		}
	}
	return req
}

// Client is an HTTP Classifier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent(log.ComponentClassifier),
	}
}

// Classify sends items and desired categories to the service and returns its
// description -> category mapping. Any non-2xx status fails the whole call.
func (c *Client) Classify(ctx context.Context, items []model.LineItem, desired []string) (model.ClassifiedItems, error) {
	body, err := json.Marshal(NewRequest(items, desired))
	if err != nil {
		return nil, fmt.Errorf("encoding classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classifyPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling classifier: %w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "classifier responded",
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
		log.FieldLineItems, len(items),
	)

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding classify response: %w: %w", ErrTransport, err)
	}
	if out.ClassifiedItems == nil {
		out.ClassifiedItems = model.ClassifiedItems{}
	}
	return out.ClassifiedItems, nil
}

// Ping checks that the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pingPath, nil)
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging classifier: %w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
