package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/press-digest/app/database"
)

// MediaClient queries the media monitoring search API.
type MediaClient struct {
	endpoint   string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

var _ Source = (*MediaClient)(nil)

func NewMediaClient(endpoint, apiKey, userAgent string, timeout time.Duration, httpClient *http.Client) *MediaClient {
	return &MediaClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

type mediaRequest struct {
	Query       string `json:"query"`
	CountryCode string `json:"country_code,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

type mediaResponse struct {
	Documents []json.RawMessage `json:"documents"`
	Data      []json.RawMessage `json:"data"`
}

func (c *MediaClient) Search(ctx context.Context, search database.Search) ([]json.RawMessage, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("media API URL is not configured")
	}

	body, err := json.Marshal(mediaRequest{
		Query:       search.Query,
		CountryCode: search.CountryCode,
		Limit:       search.MaxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query media API: %w", err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	var decoded mediaResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode media API response: %w", err)
	}

	documents := decoded.Documents
	if documents == nil {
		documents = decoded.Data
	}
	if documents == nil {
		documents = []json.RawMessage{}
	}

	if search.MaxItems > 0 && len(documents) > search.MaxItems {
		documents = documents[:search.MaxItems]
	}

	slog.Debug("Media search completed", "search", search.Name, "documents", len(documents))

	return documents, nil
}
