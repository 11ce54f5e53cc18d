// Package main is the entry point for the playlist builder.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/savid/iptv-builder/internal/config"
	"github.com/savid/iptv-builder/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg       = config.DefaultConfig()
	matchMode = string(cfg.MatchMode)
	log       = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iptv-builder",
		Short: "Build an M3U playlist from the iptv-org channel and stream datasets",
		Long: `Downloads the iptv-org channel catalog (CSV) and stream list (JSON), keeps the
channels whose language matches, joins them to their streams and writes an
extended M3U playlist.

Examples:
  # Persian channels into playlist.m3u
  iptv-builder --language fas

  # Local snapshots, strict language match, keep intermediates
  iptv-builder --channels channels.csv --streams streams.json --match-mode equals \
    --filtered-csv filtered_channels.csv --merged-csv final_merged_list.csv`,
		RunE: run,
	}

	// Source flags
	rootCmd.Flags().StringVar(&cfg.ChannelsURL, "channels", cfg.ChannelsURL, "Channel catalog CSV (URL or path)")
	rootCmd.Flags().StringVar(&cfg.StreamsURL, "streams", cfg.StreamsURL, "Stream list JSON (URL or path)")
	rootCmd.Flags().DurationVar(&cfg.FetchTimeout, "timeout", cfg.FetchTimeout, "Timeout for each dataset download")

	// Filter flags
	rootCmd.Flags().StringVar(&cfg.LanguageField, "language-field", cfg.LanguageField, "Catalog column holding language codes")
	rootCmd.Flags().StringVar(&cfg.Language, "language", cfg.Language, "Language code to keep")
	rootCmd.Flags().StringVar(&matchMode, "match-mode", matchMode, "Language match mode (equals, contains)")

	// Output flags
	rootCmd.Flags().StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "Playlist output path")
	rootCmd.Flags().StringVar(&cfg.FilteredCSVPath, "filtered-csv", "", "Write the filtered catalog to this CSV")
	rootCmd.Flags().StringVar(&cfg.MergedCSVPath, "merged-csv", "", "Write the joined entries to this CSV")

	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "Rebuild interval (0 builds once and exits)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Configure logger
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	mode, err := config.ParseMatchMode(matchMode)
	if err != nil {
		return err
	}

	cfg.MatchMode = mode

	// Validate config
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"channels": cfg.ChannelsURL,
		"streams":  cfg.StreamsURL,
		"language": cfg.Language,
		"mode":     cfg.MatchMode,
		"output":   cfg.OutputPath,
	}).Info("Building playlist")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	builder := pipeline.NewBuilder(log, cfg)

	result, err := builder.Run(ctx)
	if err != nil {
		log.WithError(err).Error("Build failed")

		return err
	}

	logSummary(result)

	if !cfg.Periodic() {
		return nil
	}

	refresher := pipeline.NewRefresher(log, builder, cfg.RefreshInterval)
	if err := refresher.Start(ctx); err != nil {
		return err
	}

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info("Received shutdown signal")

	return refresher.Stop()
}

func logSummary(result *pipeline.Result) {
	fields := logrus.Fields{
		"run":      result.RunID,
		"catalog":  result.CatalogRows,
		"streams":  result.StreamRows,
		"filtered": result.Filtered,
		"joined":   result.Joined,
		"written":  result.Written,
		"skipped":  result.Skipped,
		"took":     result.Duration.Round(time.Millisecond),
	}

	if result.Empty {
		fields["stage"] = result.EmptyStage
		fields["path"] = result.OutputPath
		log.WithFields(fields).Warn("Wrote empty playlist")

		return
	}

	fields["path"] = result.OutputPath
	log.WithFields(fields).Info("Playlist ready")
}
