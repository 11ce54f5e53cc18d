// Package data retrieves the source datasets the playlist is built from.
package data

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/savid/iptv-builder/internal/config"
	"github.com/savid/iptv-builder/internal/dataset"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 5 * time.Minute
	maxBodySize    = 500 * 1024 * 1024 // 500MB
)

// Source names used in logs and errors.
const (
	SourceCatalog = "catalog"
	SourceStreams = "streams"
)

// FetchError reports a dataset that could not be retrieved or decoded.
type FetchError struct {
	Source   string
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %v", e.Source, e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher loads datasets from remote URLs or local files.
type Fetcher struct {
	log        logrus.FieldLogger
	httpClient *http.Client
}

// NewFetcher creates a new data fetcher. A non-positive timeout uses the default.
func NewFetcher(log logrus.FieldLogger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		log: log.WithField("component", "fetcher"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCatalog loads and parses the channel catalog CSV.
func (f *Fetcher) FetchCatalog(ctx context.Context, location string) (*dataset.Table, error) {
	raw, err := f.Fetch(ctx, SourceCatalog, location)
	if err != nil {
		return nil, err
	}

	table, err := dataset.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, &FetchError{Source: SourceCatalog, Location: location, Err: err}
	}

	f.log.WithFields(logrus.Fields{
		"rows":   table.Len(),
		"fields": len(table.Fields),
	}).Info("Catalog loaded")

	return table, nil
}

// FetchStreams loads and parses the stream endpoint JSON.
func (f *Fetcher) FetchStreams(ctx context.Context, location string) (*dataset.Table, error) {
	raw, err := f.Fetch(ctx, SourceStreams, location)
	if err != nil {
		return nil, err
	}

	table, err := dataset.ParseJSON(raw)
	if err != nil {
		return nil, &FetchError{Source: SourceStreams, Location: location, Err: err}
	}

	f.log.WithFields(logrus.Fields{
		"rows":   table.Len(),
		"fields": len(table.Fields),
	}).Info("Streams loaded")

	return table, nil
}

// Fetch returns the raw bytes at location, which is an http(s) URL or a local path.
func (f *Fetcher) Fetch(ctx context.Context, source, location string) ([]byte, error) {
	f.log.WithFields(logrus.Fields{
		"source":   source,
		"location": location,
	}).Info("Fetching dataset")

	var (
		raw []byte
		err error
	)

	if config.IsRemote(location) {
		raw, err = f.fetchURL(ctx, location)
	} else {
		raw, err = f.readFile(location)
	}

	if err != nil {
		return nil, &FetchError{Source: source, Location: location, Err: err}
	}

	f.log.WithFields(logrus.Fields{
		"source": source,
		"size":   len(raw),
	}).Debug("Fetched data")

	return raw, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file

	if strings.HasSuffix(path, ".gz") {
		gzReader, gzErr := gzip.NewReader(file)
		if gzErr != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer gzReader.Close()

		reader = gzReader
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Accept gzip encoding
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body

	// Handle gzip encoding
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gzReader, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer gzReader.Close()

		reader = gzReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
