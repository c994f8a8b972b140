package news

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
)

var (
	ErrUnknownSubscriber = errors.New("subscriber not found")
	ErrNoConfiguration   = errors.New("no default configuration")
)

// Request selects whose news to fetch. Email wins over explicit ids; with
// neither, the default configuration applies.
type Request struct {
	Email     string
	CountryID int64
	SectorID  int64
}

// Resolved is a request with its searches and panel sizes settled.
type Resolved struct {
	Identity  string
	CountryID int64
	SectorID  int64
	Sizes     curation.Sizes
}

// Envelope is the fetch result as served to clients: the raw documents of
// the country ("pais") and sector searches.
type Envelope struct {
	Success bool              `json:"success"`
	Pais    []json.RawMessage `json:"pais"`
	Sector  []json.RawMessage `json:"sector"`
	Message string            `json:"message,omitempty"`
}

// FailureEnvelope reports a whole-batch failure.
func FailureEnvelope(err error) Envelope {
	return Envelope{Success: false, Pais: []json.RawMessage{}, Sector: []json.RawMessage{}, Message: err.Error()}
}

// Result is a fetched snapshot ready for curation.
type Result struct {
	Resolved
	Country  *database.Search
	Sector   *database.Search
	Envelope Envelope
}

// Digest is a curated snapshot.
type Digest struct {
	Identity string
	Panels   curation.Panels
}

// FetchError wraps upstream failures so callers can tell them apart from
// resolution errors.
type FetchError struct {
	Search string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch search %s: %v", e.Search, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
