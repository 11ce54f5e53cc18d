// Package main provides a CLI tool for debugging catalog filtering and stream joining.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/savid/iptv-builder/internal/catalog"
	"github.com/savid/iptv-builder/internal/config"
	"github.com/savid/iptv-builder/internal/data"
	"github.com/savid/iptv-builder/internal/dataset"
	"github.com/savid/iptv-builder/internal/join"
	"github.com/savid/iptv-builder/internal/m3u"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg       = config.DefaultConfig()
	matchMode = string(cfg.MatchMode)
	verify    bool
	log       = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Debug catalog filtering and stream joining",
		Long: `A debugging tool to analyze how catalog channels are selected and joined to streams.

Outputs detailed information about:
- Which catalog field was resolved as the join key and which fields collide
- How many catalog rows the language filter keeps
- Which kept channels have no stream, with close stream keys
- Summary statistics, optionally verified by re-parsing the emitted playlist

Examples:
  # Using local files
  go run ./cmd/inspect --channels testdata/channels.csv --streams testdata/streams.json

  # Using the default iptv-org sources
  go run ./cmd/inspect --language ara --verify`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&cfg.ChannelsURL, "channels", cfg.ChannelsURL, "Channel catalog CSV (URL or path)")
	rootCmd.Flags().StringVar(&cfg.StreamsURL, "streams", cfg.StreamsURL, "Stream list JSON (URL or path)")
	rootCmd.Flags().StringVar(&cfg.LanguageField, "language-field", cfg.LanguageField, "Catalog column holding language codes")
	rootCmd.Flags().StringVar(&cfg.Language, "language", cfg.Language, "Language code to keep")
	rootCmd.Flags().StringVar(&matchMode, "match-mode", matchMode, "Language match mode (equals, contains)")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "Emit the playlist in memory and parse it back")
	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Configure logger
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if cfg.MatchMode, err = config.ParseMatchMode(matchMode); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fetcher := data.NewFetcher(log, cfg.FetchTimeout)

	catalogTable, err := fetcher.FetchCatalog(ctx, cfg.ChannelsURL)
	if err != nil {
		return err
	}

	streams, err := fetcher.FetchStreams(ctx, cfg.StreamsURL)
	if err != nil {
		return err
	}

	filtered, err := catalog.Filter(catalogTable, cfg.LanguageField, cfg.Language, cfg.MatchMode)
	if err != nil {
		return err
	}

	schema, err := join.ResolveSchema(filtered, streams, cfg.LanguageField)
	if err != nil {
		return err
	}

	entries := schema.Join(filtered, streams)

	printSchema(catalogTable, streams, schema)
	printUnmatched(filtered, streams, schema)

	return printSummary(catalogTable, filtered, streams, schema, entries)
}

func printSchema(catalogTable, streams *dataset.Table, schema *join.Schema) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SCHEMA")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("  Catalog fields: %s\n", strings.Join(catalogTable.Fields, ", "))
	fmt.Printf("  Stream fields:  %s\n", strings.Join(streams.Fields, ", "))
	fmt.Printf("  Join key:       catalog.%s = streams.%s\n", schema.CatalogKey, schema.StreamKey)

	collisions := schema.Collisions()
	if len(collisions) == 0 {
		fmt.Println("  Collisions:     none")

		return
	}

	for _, field := range collisions {
		fmt.Printf("  Collision:      %s (catalog value kept as %s)\n", field, schema.CatalogName(field))
	}
}

func printUnmatched(filtered, streams *dataset.Table, schema *join.Schema) {
	unmatched := schema.Unmatched(filtered, streams)

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("CHANNELS WITHOUT STREAMS (%d/%d)\n", len(unmatched), filtered.Len())
	fmt.Println(strings.Repeat("-", 80))

	if len(unmatched) == 0 {
		fmt.Println("  Every kept channel has a stream!")

		return
	}

	keys := streamKeys(streams, schema.StreamKey)

	for _, id := range unmatched {
		fmt.Printf("\n  %s\n", id)

		closeMatches := findClosestMatches(id, keys)
		if len(closeMatches) == 0 {
			fmt.Println("    no close stream keys found")

			continue
		}

		fmt.Println("    close stream keys:")

		for _, match := range closeMatches {
			fmt.Printf("      - %s\n", match)
		}
	}
}

func printSummary(catalogTable, filtered, streams *dataset.Table, schema *join.Schema, entries []join.Entry) error {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("  Catalog rows:          %d\n", catalogTable.Len())
	fmt.Printf("  Kept (%s %s %q): %d\n", cfg.LanguageField, cfg.MatchMode, cfg.Language, filtered.Len())
	fmt.Printf("  Stream rows:           %d\n", streams.Len())
	fmt.Printf("  Streams for others:    %d\n", schema.Orphans(filtered, streams))
	fmt.Printf("  Joined entries:        %d\n", len(entries))

	if verify {
		var buf bytes.Buffer

		stats, err := m3u.Write(&buf, entries)
		if err != nil {
			return fmt.Errorf("failed to emit playlist: %w", err)
		}

		channels, err := m3u.Parse(buf.Bytes())
		if err != nil {
			return fmt.Errorf("emitted playlist does not parse: %w", err)
		}

		fmt.Println()
		fmt.Printf("  Blocks written:        %d\n", stats.Written)
		fmt.Printf("  Blocks skipped:        %d\n", stats.Skipped)
		fmt.Printf("  Blocks parsed back:    %d\n", len(channels))

		if len(channels) != stats.Written {
			fmt.Println("  WARNING: parsed block count differs from written count")
		}
	}

	fmt.Println(strings.Repeat("=", 80))

	return nil
}

func streamKeys(streams *dataset.Table, field string) []string {
	seen := make(map[string]bool, streams.Len())
	keys := make([]string, 0, streams.Len())

	for _, row := range streams.Rows {
		key := row.Get(field)
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	return keys
}

// findClosestMatches finds stream keys sharing tokens with id, e.g. a
// different case or an "@feed" suffix.
func findClosestMatches(id string, keys []string) []string {
	tokens := keyTokens(id)

	if len(tokens) == 0 {
		return nil
	}

	type scored struct {
		key   string
		score int
	}

	candidates := make([]scored, 0, 10)

	for _, key := range keys {
		matches := 0

		for _, t2 := range keyTokens(key) {
			for _, t1 := range tokens {
				if t1 == t2 {
					matches++

					break
				}
			}
		}

		if matches > 0 {
			candidates = append(candidates, scored{
				key:   key,
				score: matches,
			})
		}
	}

	// Sort by score (descending), then key for stable output
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}

		return candidates[i].key < candidates[j].key
	})

	// Return top 5
	result := make([]string, 0, 5)

	for i := 0; i < len(candidates) && i < 5; i++ {
		result = append(result, candidates[i].key)
	}

	return result
}

func keyTokens(key string) []string {
	return strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '.' || r == '@' || r == '-' || r == '_' || r == ' '
	})
}
