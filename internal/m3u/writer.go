package m3u

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/savid/iptv-builder/internal/dataset"
	"github.com/savid/iptv-builder/internal/join"
)

// Header is the directive every playlist starts with.
const Header = "#EXTM3U"

const (
	extInfPrefix = "#EXTINF:"
	vlcOptPrefix = "#EXTVLCOPT:"
	optUserAgent = "http-user-agent"
	optReferrer  = "http-referrer"
)

// Stats counts the blocks a Write produced.
type Stats struct {
	Written int
	Skipped int
}

// Lines yields the playlist one line at a time, without line terminators.
// The header is always yielded, even when every entry is skipped.
func Lines(entries []join.Entry) iter.Seq[string] {
	return lines(entries, nil)
}

// lines backs both Lines and Write. When stats is non-nil it counts the
// blocks fully yielded and the entries skipped for a missing URL.
func lines(entries []join.Entry, stats *Stats) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(Header) {
			return
		}

		for _, entry := range entries {
			block := Block(entry)
			if block == nil {
				if stats != nil {
					stats.Skipped++
				}

				continue
			}

			for _, line := range block {
				if !yield(line) {
					return
				}
			}

			if stats != nil {
				stats.Written++
			}
		}
	}
}

// Block returns the lines for one entry, ending with the blank separator.
// It returns nil when the entry has no usable URL.
func Block(entry join.Entry) []string {
	url := singleLine(dataset.Normalize(entry.URL()))
	if url == "" {
		return nil
	}

	lines := make([]string, 0, 5)
	lines = append(lines, fmt.Sprintf(`%s-1 tvg-id="%s" group-title="%s" tvg-language="%s" tvg-quality="%s",%s`,
		extInfPrefix,
		attrValue(entry.ID()),
		attrValue(Group(entry.BroadcastArea())),
		attrValue(entry.Languages()),
		attrValue(entry.Quality()),
		singleLine(dataset.Normalize(entry.Title())),
	))

	if ua := singleLine(dataset.Normalize(entry.UserAgent())); ua != "" {
		lines = append(lines, vlcOptPrefix+optUserAgent+"="+ua)
	}

	if ref := singleLine(dataset.Normalize(entry.Referrer())); ref != "" {
		lines = append(lines, vlcOptPrefix+optReferrer+"="+ref)
	}

	return append(lines, url, "")
}

// Write streams the playlist for entries to w. Its output is Lines joined
// with "\n".
func Write(w io.Writer, entries []join.Entry) (Stats, error) {
	var (
		stats Stats
		err   error
	)

	bw := bufio.NewWriter(w)

	for line := range lines(entries, &stats) {
		if _, err = bw.WriteString(line + "\n"); err != nil {
			break
		}
	}

	if err != nil {
		return stats, fmt.Errorf("failed to write playlist: %w", err)
	}

	if err = bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush playlist: %w", err)
	}

	return stats, nil
}

// Group renders a broadcast area as a group title: region prefixes "c/" are
// dropped and ";" separated codes are joined with ", ".
func Group(area string) string {
	area = dataset.Normalize(area)
	if area == "" {
		return ""
	}

	parts := strings.Split(area, ";")
	codes := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimPrefix(strings.TrimSpace(p), "c/")
		if p != "" {
			codes = append(codes, p)
		}
	}

	return strings.Join(codes, ", ")
}

// attrValue prepares a value for a quoted attribute. Embedded quotes are stripped.
func attrValue(v string) string {
	return strings.ReplaceAll(singleLine(dataset.Normalize(v)), `"`, "")
}

func singleLine(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return v
	}

	return strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}
