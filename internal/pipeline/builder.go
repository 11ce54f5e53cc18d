// Package pipeline runs the filter, join and emit stages that turn the two
// source datasets into a playlist file.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/savid/iptv-builder/internal/catalog"
	"github.com/savid/iptv-builder/internal/config"
	"github.com/savid/iptv-builder/internal/data"
	"github.com/savid/iptv-builder/internal/dataset"
	"github.com/savid/iptv-builder/internal/join"
	"github.com/savid/iptv-builder/internal/m3u"
	"github.com/sirupsen/logrus"
)

// Stages that can end a run early with an empty result.
const (
	StageFilter = "filter"
	StageJoin   = "join"
)

// Result summarises one build.
type Result struct {
	RunID string

	CatalogRows int
	StreamRows  int
	Filtered    int
	CatalogKey  string
	Joined      int
	Written     int
	Skipped     int

	// Empty is set when a stage produced no rows. Later stages did not run
	// and the playlist holds only the header.
	Empty      bool
	EmptyStage string

	OutputPath string
	Duration   time.Duration
}

// Builder produces a playlist from the configured sources.
type Builder struct {
	log     logrus.FieldLogger
	cfg     *config.Config
	fetcher *data.Fetcher
}

// NewBuilder creates a new playlist builder.
func NewBuilder(log logrus.FieldLogger, cfg *config.Config) *Builder {
	return &Builder{
		log:     log.WithField("component", "builder"),
		cfg:     cfg,
		fetcher: data.NewFetcher(log, cfg.FetchTimeout),
	}
}

// Run fetches both datasets and builds the playlist. Both fetches complete
// before any stage runs.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	catalogTable, err := b.fetcher.FetchCatalog(ctx, b.cfg.ChannelsURL)
	if err != nil {
		return nil, err
	}

	streams, err := b.fetcher.FetchStreams(ctx, b.cfg.StreamsURL)
	if err != nil {
		return nil, err
	}

	result, err := b.Process(catalogTable, streams)
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(started)

	return result, nil
}

// Process runs the filter, join and emit stages over already loaded datasets.
func (b *Builder) Process(catalogTable, streams *dataset.Table) (*Result, error) {
	result := &Result{
		RunID:       uuid.NewString(),
		CatalogRows: catalogTable.Len(),
		StreamRows:  streams.Len(),
	}

	log := b.log.WithField("run", result.RunID)

	filtered, err := catalog.Filter(catalogTable, b.cfg.LanguageField, b.cfg.Language, b.cfg.MatchMode)
	if err != nil {
		return nil, fmt.Errorf("filter failed: %w", err)
	}

	result.Filtered = filtered.Len()

	log.WithFields(logrus.Fields{
		"field":    b.cfg.LanguageField,
		"language": b.cfg.Language,
		"mode":     b.cfg.MatchMode,
		"rows":     result.CatalogRows,
		"matched":  result.Filtered,
	}).Info("Filtered catalog")

	if result.Filtered == 0 {
		if err := b.dump(b.cfg.FilteredCSVPath, filtered); err != nil {
			return nil, err
		}

		return b.empty(log, result, StageFilter)
	}

	schema, err := join.ResolveSchema(filtered, streams, b.cfg.LanguageField)
	if err != nil {
		return nil, fmt.Errorf("join failed: %w", err)
	}

	if err := b.dump(b.cfg.FilteredCSVPath, filtered); err != nil {
		return nil, err
	}

	result.CatalogKey = schema.CatalogKey

	entries := schema.Join(filtered, streams)
	result.Joined = len(entries)

	log.WithFields(logrus.Fields{
		"key":        schema.CatalogKey,
		"collisions": schema.Collisions(),
		"streams":    result.StreamRows,
		"entries":    result.Joined,
		"unmatched":  len(schema.Unmatched(filtered, streams)),
	}).Info("Joined streams")

	if result.Joined == 0 {
		return b.empty(log, result, StageJoin)
	}

	if err := b.dump(b.cfg.MergedCSVPath, schema.Table(entries)); err != nil {
		return nil, err
	}

	if err := b.writePlaylist(result, entries); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"path":    result.OutputPath,
		"written": result.Written,
		"skipped": result.Skipped,
	}).Info("Playlist written")

	return result, nil
}

// empty finishes a run whose stage produced no rows with a header-only
// playlist, replacing any previous one.
func (b *Builder) empty(log logrus.FieldLogger, result *Result, stage string) (*Result, error) {
	result.Empty = true
	result.EmptyStage = stage

	if err := b.writePlaylist(result, nil); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"stage":    stage,
		"language": b.cfg.Language,
		"path":     result.OutputPath,
	}).Warn("No rows left, wrote empty playlist")

	return result, nil
}

func (b *Builder) writePlaylist(result *Result, entries []join.Entry) error {
	var stats m3u.Stats

	err := writeFileAtomic(b.cfg.OutputPath, func(w io.Writer) error {
		var writeErr error

		stats, writeErr = m3u.Write(w, entries)

		return writeErr
	})
	if err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}

	result.Written = stats.Written
	result.Skipped = stats.Skipped
	result.OutputPath = b.cfg.OutputPath

	return nil
}

// dump writes an intermediate dataset when path is configured.
func (b *Builder) dump(path string, table *dataset.Table) error {
	if path == "" {
		return nil
	}

	return b.writeCSV(path, table)
}

func (b *Builder) writeCSV(path string, table *dataset.Table) error {
	err := writeFileAtomic(path, func(w io.Writer) error {
		return dataset.WriteCSV(w, table)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	b.log.WithFields(logrus.Fields{
		"path": path,
		"rows": table.Len(),
	}).Debug("Wrote intermediate dataset")

	return nil
}
