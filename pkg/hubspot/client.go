// Package hubspot implements the CRM destination client. All writes are
// upserts: search for an existing record first, then PATCH a partial update
// or POST a create. Every request passes the per-credential rate limiter
// before hitting the wire.
package hubspot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/syncerrors"
)

const objectsBasePath = "/crm/v3/objects/"

// Client is a destination CRM client bound to one API key. Safe for
// concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient creates a new destination client. requestsPerSecond bounds the
// request rate for this key.
func NewClient(baseURL, apiKey string, timeout time.Duration, requestsPerSecond float64, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		log:     log,
	}
}

// UpsertResult reports what an upsert did.
type UpsertResult struct {
	ID      string
	Created bool
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchRequest struct {
	FilterGroups []searchFilterGroup `json:"filterGroups"`
	Properties   []string            `json:"properties,omitempty"`
	Limit        int                 `json:"limit,omitempty"`
}

type searchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID         string            `json:"id"`
		Properties map[string]string `json:"properties"`
	} `json:"results"`
}

type objectResponse struct {
	ID string `json:"id"`
}

// Search returns the id of the first record whose properties equal all of
// the given key/value pairs, or "" when none matches. Pairs with empty
// values are dropped before searching.
func (c *Client) Search(ctx context.Context, objectType string, equals map[string]string) (string, error) {
	group := searchFilterGroup{}
	for name, value := range equals {
		if value == "" {
			continue
		}
		group.Filters = append(group.Filters, searchFilter{
			PropertyName: name,
			Operator:     "EQ",
			Value:        value,
		})
	}
	if len(group.Filters) == 0 {
		return "", nil
	}

	body, err := c.do(ctx, http.MethodPost, objectsBasePath+objectType+"/search", searchRequest{
		FilterGroups: []searchFilterGroup{group},
		Limit:        1,
	})
	if err != nil {
		return "", err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &syncerrors.ParseError{System: "hubspot", Err: err}
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ID, nil
}

// Create creates a new record and returns its id. Empty properties are
// never sent.
func (c *Client) Create(ctx context.Context, objectType string, properties map[string]string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, objectsBasePath+objectType, propertiesBody(properties))
	if err != nil {
		return "", err
	}

	var resp objectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &syncerrors.ParseError{System: "hubspot", Err: err}
	}
	return resp.ID, nil
}

// Update patches an existing record. Only the given properties change;
// everything else on the record is left alone.
func (c *Client) Update(ctx context.Context, objectType, id string, properties map[string]string) error {
	_, err := c.do(ctx, http.MethodPatch, objectsBasePath+objectType+"/"+id, propertiesBody(properties))
	return err
}

// Upsert searches by the given equality pairs and updates the match, or
// creates a new record when none exists.
func (c *Client) Upsert(ctx context.Context, objectType string, searchBy map[string]string, properties map[string]string) (UpsertResult, error) {
	id, err := c.Search(ctx, objectType, searchBy)
	if err != nil {
		return UpsertResult{}, err
	}

	if id != "" {
		if err := c.Update(ctx, objectType, id, properties); err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{ID: id}, nil
	}

	id, err = c.Create(ctx, objectType, properties)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: id, Created: true}, nil
}

// Property is one destination property definition.
type Property struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Properties lists the property definitions of a destination object type.
func (c *Client) Properties(ctx context.Context, objectType string) ([]Property, error) {
	body, err := c.do(ctx, http.MethodGet, "/crm/v3/properties/"+objectType, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []Property `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &syncerrors.ParseError{System: "hubspot", Err: err}
	}
	return resp.Results, nil
}

// TestCredentials verifies the API key with a one-record contact read.
func (c *Client) TestCredentials(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, objectsBasePath+"contacts?limit=1", nil)
	return err
}

func propertiesBody(properties map[string]string) interface{} {
	props := make(map[string]string, len(properties))
	for name, value := range properties {
		if value == "" {
			continue
		}
		props[name] = value
	}
	return map[string]interface{}{"properties": props}
}

// do sends one authenticated request through the rate limiter and returns
// the response body. Non-2xx statuses are UpstreamErrors carrying the body.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &syncerrors.TransportError{System: "hubspot", Err: err}
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &syncerrors.TransportError{System: "hubspot", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugf("%s %s", method, path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &syncerrors.TransportError{System: "hubspot", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &syncerrors.TransportError{System: "hubspot", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &syncerrors.UpstreamError{
			System: "hubspot",
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	return body, nil
}
