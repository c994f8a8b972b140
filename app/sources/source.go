package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lysyi3m/press-digest/app/database"
)

// Source runs a search and returns the upstream documents undecoded.
type Source interface {
	Search(ctx context.Context, search database.Search) ([]json.RawMessage, error)
}

// Registry picks the source matching a search definition.
type Registry struct {
	Media Source
	Feed  Source
}

func (r *Registry) For(search database.Search) (Source, error) {
	var src Source
	switch search.Source {
	case database.SearchSourceMedia, "":
		src = r.Media
	case database.SearchSourceRSS:
		src = r.Feed
	default:
		return nil, fmt.Errorf("unknown search source %q", search.Source)
	}

	if src == nil {
		return nil, fmt.Errorf("source %q is not configured", search.Source)
	}
	return src, nil
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Body)
}

const maxErrorBody = 512

func readResponse(resp *http.Response) ([]byte, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
