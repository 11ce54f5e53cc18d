// Package m3u writes and reads the extended M3U playlists IPTV players consume.
package m3u

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrIncompleteChannel is returned when an #EXTINF line has no corresponding URL.
	ErrIncompleteChannel = errors.New("found #EXTINF without URL at end of file")
	// ErrOrphanedChannel is returned when a new #EXTINF is found before the previous one has a URL.
	ErrOrphanedChannel = errors.New("found #EXTINF without URL for previous channel")
)

// Channel represents a single channel block read back from a playlist.
type Channel struct {
	Name      string
	URL       string
	TVGID     string
	Group     string
	Language  string
	Quality   string
	UserAgent string
	Referrer  string
	Original  string
}

var attributePatterns = map[string]*regexp.Regexp{}

func init() {
	for _, attr := range []string{"tvg-id", "group-title", "tvg-language", "tvg-quality"} {
		attributePatterns[attr] = attributeRegexp(attr)
	}
}

// Parse extracts channel blocks from playlist data.
func Parse(data []byte) ([]Channel, error) {
	channels := make([]Channel, 0, 100)
	reader := bytes.NewReader(data)
	scanner := bufio.NewScanner(reader)

	var currentChannel *Channel

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, Header):
			continue
		case strings.HasPrefix(line, extInfPrefix):
			if currentChannel != nil {
				return nil, ErrOrphanedChannel
			}

			currentChannel = &Channel{
				Original: line,
				TVGID:    extractAttribute(line, "tvg-id"),
				Group:    extractAttribute(line, "group-title"),
				Language: extractAttribute(line, "tvg-language"),
				Quality:  extractAttribute(line, "tvg-quality"),
				Name:     displayName(line),
			}
		case strings.HasPrefix(line, vlcOptPrefix) && currentChannel != nil:
			key, value, _ := strings.Cut(strings.TrimPrefix(line, vlcOptPrefix), "=")

			switch key {
			case optUserAgent:
				currentChannel.UserAgent = value
			case optReferrer:
				currentChannel.Referrer = value
			}
		case !strings.HasPrefix(line, "#") && currentChannel != nil:
			currentChannel.URL = line
			channels = append(channels, *currentChannel)
			currentChannel = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning M3U data: %w", err)
	}

	if currentChannel != nil {
		return nil, ErrIncompleteChannel
	}

	return channels, nil
}

// displayName returns the text after the first comma outside a quoted attribute.
func displayName(line string) string {
	quoted := false

	for i, r := range line {
		switch r {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return strings.TrimSpace(line[i+1:])
			}
		}
	}

	return ""
}

func attributeRegexp(attr string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`%s="([^"]*)"`, regexp.QuoteMeta(attr)))
}

func extractAttribute(line, attr string) string {
	re, ok := attributePatterns[attr]
	if !ok {
		re = attributeRegexp(attr)
	}

	matches := re.FindStringSubmatch(line)

	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}
