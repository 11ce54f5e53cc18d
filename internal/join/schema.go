// Package join pairs filtered catalog rows with the stream endpoints that reference them.
package join

import (
	"fmt"
	"strings"

	"github.com/savid/iptv-builder/internal/dataset"
)

const (
	// StreamDataset identifies the stream dataset in schema errors.
	StreamDataset = "streams"
	// StreamKeyField is the stream foreign key. It has not changed across revisions.
	StreamKeyField = "channel"
	// CatalogSuffix is appended to catalog fields that collide with stream fields.
	CatalogSuffix = "_catalog"
)

// Field names shared by the datasets.
const (
	FieldURL           = "url"
	FieldTitle         = "title"
	FieldName          = "name"
	FieldLanguages     = "languages"
	FieldBroadcastArea = "broadcast_area"
	FieldLogo          = "logo_url"
	FieldQuality       = "quality"
	FieldFormat        = "format"
	FieldUserAgent     = "user_agent"
	FieldReferrer      = "referrer"
)

// catalogKeyFields are the catalog identifier names in order of preference.
var catalogKeyFields = []string{"channel", "id"}

// JoinError is returned when no catalog field can serve as the join key.
type JoinError struct {
	Candidates []string
	Available  []string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("catalog has no join key (tried %s; available: %s)",
		strings.Join(e.Candidates, ", "), strings.Join(e.Available, ", "))
}

// Schema is the join layout resolved once per run.
type Schema struct {
	// CatalogKey is the catalog field matched against StreamKey.
	CatalogKey string
	StreamKey  string

	// LanguageField is the catalog field rendered as the entry's languages.
	LanguageField string

	// Fields is the joined field order: stream fields, then catalog fields,
	// with colliding catalog fields renamed by CatalogSuffix.
	Fields []string

	// renamed maps colliding catalog fields to their joined name.
	renamed map[string]string
}

// ResolveSchema picks the catalog key and works out field collisions.
// languageField names the catalog language column; empty means FieldLanguages.
func ResolveSchema(catalog, streams *dataset.Table, languageField string) (*Schema, error) {
	if languageField == "" {
		languageField = FieldLanguages
	}

	key := ""

	for _, candidate := range catalogKeyFields {
		if catalog.Has(candidate) {
			key = candidate

			break
		}
	}

	if key == "" {
		available := []string{}
		if catalog != nil {
			available = append(available, catalog.Fields...)
		}

		return nil, &JoinError{
			Candidates: append([]string(nil), catalogKeyFields...),
			Available:  available,
		}
	}

	if streams == nil {
		streams = dataset.New(nil)
	}

	if streams.Len() > 0 {
		if err := streams.Require(StreamDataset, StreamKeyField, FieldURL); err != nil {
			return nil, err
		}
	}

	schema := &Schema{
		CatalogKey:    key,
		StreamKey:     StreamKeyField,
		LanguageField: languageField,
		Fields:        make([]string, 0, len(streams.Fields)+len(catalog.Fields)),
		renamed:       make(map[string]string),
	}

	schema.Fields = append(schema.Fields, streams.Fields...)

	for _, field := range catalog.Fields {
		name := field
		if streams.Has(field) {
			name = field + CatalogSuffix
			schema.renamed[field] = name
		}

		schema.Fields = append(schema.Fields, name)
	}

	return schema, nil
}

// CatalogName returns the joined name of a catalog field.
func (s *Schema) CatalogName(field string) string {
	if name, ok := s.renamed[field]; ok {
		return name
	}

	return field
}

// Collisions returns the catalog fields that were renamed, in catalog order.
func (s *Schema) Collisions() []string {
	out := make([]string, 0, len(s.renamed))

	for _, field := range s.Fields {
		if !strings.HasSuffix(field, CatalogSuffix) {
			continue
		}

		original := strings.TrimSuffix(field, CatalogSuffix)
		if s.renamed[original] == field {
			out = append(out, original)
		}
	}

	return out
}
