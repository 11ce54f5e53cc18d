// Package catalog selects the channel catalog rows a playlist is built from.
package catalog

import (
	"fmt"
	"strings"

	"github.com/savid/iptv-builder/internal/config"
	"github.com/savid/iptv-builder/internal/dataset"
)

// DatasetName identifies the catalog in schema errors.
const DatasetName = "catalog"

// tokenSeparators split multi-value language fields. Dataset revisions used both.
const tokenSeparators = ";,"

// Filter returns a new table holding the rows of catalog whose languageField
// matches target under mode, in input order. A missing or empty value never
// matches. The field must exist in the catalog's field set.
func Filter(catalog *dataset.Table, languageField, target string, mode config.MatchMode) (*dataset.Table, error) {
	if err := catalog.Require(DatasetName, languageField); err != nil {
		return nil, err
	}

	match, err := matcher(mode)
	if err != nil {
		return nil, err
	}

	target = strings.TrimSpace(target)
	rows := make([]dataset.Row, 0, 64)

	for _, row := range catalog.Rows {
		value := dataset.Normalize(row.Get(languageField))
		if value == "" {
			continue
		}

		if match(value, target) {
			rows = append(rows, row)
		}
	}

	return catalog.WithRows(rows), nil
}

// matches reports whether a single language value matches target under mode.
func matches(value, target string, mode config.MatchMode) bool {
	match, err := matcher(mode)
	if err != nil {
		return false
	}

	value = dataset.Normalize(value)
	if value == "" {
		return false
	}

	return match(value, strings.TrimSpace(target))
}

func matcher(mode config.MatchMode) (func(value, target string) bool, error) {
	switch mode {
	case config.MatchEquals:
		return equals, nil
	case config.MatchContains, "":
		return containsToken, nil
	default:
		return nil, fmt.Errorf("unsupported match mode %q", mode)
	}
}

func equals(value, target string) bool {
	return value == target
}

func containsToken(value, target string) bool {
	for _, token := range splitTokens(value) {
		if token == target {
			return true
		}
	}

	return false
}

// splitTokens splits a delimited multi-value field into trimmed, non-empty tokens.
func splitTokens(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(tokenSeparators, r)
	})

	tokens := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}

	return tokens
}
