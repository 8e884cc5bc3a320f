package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultCatalogURL is the NASA Exoplanet Archive TAP export of the
// cumulative KOI table, restricted to CSV output.
const DefaultCatalogURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync?query=select+*+from+cumulative&format=csv"

// Fetcher downloads the KOI catalogue when no local copy is present.
type Fetcher struct {
	url  string
	rest *resty.Client
}

// NewFetcher creates a catalogue fetcher for the given URL. An empty URL
// selects DefaultCatalogURL.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if url == "" {
		url = DefaultCatalogURL
	}
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(2 * time.Minute)
	}
	r.SetRetryCount(2).SetRetryWaitTime(5 * time.Second)
	return &Fetcher{url: url, rest: r}
}

// Ensure downloads the catalogue to path unless the file already exists.
// Returns the path of the usable catalogue file.
func (f *Fetcher) Ensure(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		log.Debug().Str("path", path).Msg("catalogue already present, skipping download")
		return path, nil
	}

	log.Info().Str("url", f.url).Str("path", path).Msg("downloading KOI catalogue")
	resp, err := f.rest.R().SetOutput(path).Get(f.url)
	if err != nil {
		return "", fmt.Errorf("download catalogue: %w", err)
	}
	if resp.IsError() {
		os.Remove(path)
		return "", fmt.Errorf("download catalogue: archive returned %s", resp.Status())
	}
	return path, nil
}
