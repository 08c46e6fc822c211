// Package tarkovdev fetches current entities from the tarkov.dev GraphQL
// API. The reconciliation and apply pipelines never talk to the network
// themselves; this client materializes a full snapshot per category and
// hands it over, or fails the run.
package tarkovdev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tarkovhub/overlay/pkg/apply"
	"github.com/tarkovhub/overlay/pkg/errors"
	"github.com/tarkovhub/overlay/pkg/logging"
)

// DefaultEndpoint is the public tarkov.dev GraphQL endpoint.
const DefaultEndpoint = "https://api.tarkov.dev/graphql"

const defaultTimeout = 30 * time.Second

// Client is a minimal GraphQL client for the tarkov.dev API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a tarkov.dev API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "tarkovhub-overlay",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// categoryQueries maps an overlay category to the GraphQL query that
// fetches its current entities. The root field name must equal the
// category name; the response decoder depends on it.
var categoryQueries = map[string]string{
	"tasks": `query Tasks($gameMode: GameMode) {
  tasks(gameMode: $gameMode) {
    id
    name
    minPlayerLevel
    wikiLink
    experience
    map { id name }
    finishRewards {
      items { item { id name } count }
      offerUnlock { trader { id name } }
      traderStanding { trader { id name } standing }
    }
    taskRequirements { task { id name } status }
    objectives { id type description optional maps { id name } }
  }
}`,
	"traders": `query Traders($gameMode: GameMode) {
  traders(gameMode: $gameMode) { id name normalizedName description }
}`,
	"maps": `query Maps($gameMode: GameMode) {
  maps(gameMode: $gameMode) { id name normalizedName wiki description }
}`,
	"items": `query Items($gameMode: GameMode) {
  items(gameMode: $gameMode) { id name shortName normalizedName wikiLink types }
}`,
}

// SupportsCategory reports whether a query exists for the category.
func SupportsCategory(category string) bool {
	_, ok := categoryQueries[category]
	return ok
}

// Category fetches all current entities of one category. mode selects
// the game mode ("" means the API default, regular).
func (c *Client) Category(ctx context.Context, category, mode string) ([]apply.Entity, error) {
	query, ok := categoryQueries[category]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "category query", ID: category}
	}

	variables := map[string]any{}
	if mode != "" {
		variables["gameMode"] = strings.ToLower(mode)
	}

	start := time.Now()
	data, err := c.do(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	var payload map[string][]map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.WrapParse("json", c.endpoint, err)
	}

	records, ok := payload[category]
	if !ok {
		return nil, &errors.APIError{
			Endpoint: c.endpoint,
			Message:  fmt.Sprintf("response lacks %q field", category),
		}
	}

	entities := make([]apply.Entity, 0, len(records))
	for _, record := range records {
		entities = append(entities, apply.Entity(record))
	}

	logging.Debug().
		Str("category", category).
		Str("mode", mode).
		Int("entities", len(entities)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched live entities")

	return entities, nil
}

// graphqlRequest is the JSON body of a GraphQL POST.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the envelope every GraphQL response arrives in.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do executes one GraphQL request and returns the raw data payload.
func (c *Client) do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &errors.APIError{Endpoint: c.endpoint, Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errors.APIError{Endpoint: c.endpoint, Message: "request failed", Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.APIError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.WrapParse("json", c.endpoint, err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &errors.APIError{
			Endpoint: c.endpoint,
			Message:  "GraphQL errors: " + strings.Join(messages, "; "),
		}
	}
	if envelope.Data == nil {
		return nil, &errors.APIError{Endpoint: c.endpoint, Message: "empty data payload"}
	}
	return envelope.Data, nil
}
