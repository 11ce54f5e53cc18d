package join

import (
	"github.com/savid/iptv-builder/internal/dataset"
)

// Entry is one catalog row paired with one stream row. It is read-only.
type Entry struct {
	id            string
	title         string
	url           string
	name          string
	languages     string
	broadcastArea string
	logo          string
	quality       string
	userAgent     string
	referrer      string

	attrs map[string]string
}

// ID returns the catalog identifier the entry was joined on.
func (e Entry) ID() string { return e.id }

// Title returns the stream title, falling back to the catalog title, then
// the catalog name.
func (e Entry) Title() string { return e.title }

// URL returns the playable endpoint from the stream side.
func (e Entry) URL() string { return e.url }

// Name returns the catalog channel name.
func (e Entry) Name() string { return e.name }

// Languages returns the raw catalog language value.
func (e Entry) Languages() string { return e.languages }

// BroadcastArea returns the raw catalog broadcast area value.
func (e Entry) BroadcastArea() string { return e.broadcastArea }

// Logo returns the catalog logo URL.
func (e Entry) Logo() string { return e.logo }

// Quality returns the stream quality hint.
func (e Entry) Quality() string { return e.quality }

// UserAgent returns the HTTP user agent the endpoint requires, if any.
func (e Entry) UserAgent() string { return e.userAgent }

// Referrer returns the HTTP referrer the endpoint requires, if any.
func (e Entry) Referrer() string { return e.referrer }

// Attr returns a joined attribute by its joined field name.
func (e Entry) Attr(field string) string { return e.attrs[field] }

// Attrs returns a copy of every joined attribute.
func (e Entry) Attrs() map[string]string {
	out := make(map[string]string, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}

	return out
}

// Join resolves the schema and pairs filtered catalog rows with streams.
// Languages are read from FieldLanguages.
func Join(filtered, streams *dataset.Table) ([]Entry, error) {
	schema, err := ResolveSchema(filtered, streams, FieldLanguages)
	if err != nil {
		return nil, err
	}

	return schema.Join(filtered, streams), nil
}

// Join performs an inner equi-join on the resolved keys. Output follows
// stream order; a stream matching several catalog rows yields one entry per
// row, in catalog order.
func (s *Schema) Join(filtered, streams *dataset.Table) []Entry {
	index := s.index(filtered)
	entries := make([]Entry, 0, streams.Len())

	if streams == nil {
		return entries
	}

	for _, stream := range streams.Rows {
		ref := stream.Get(s.StreamKey)
		if ref == "" {
			continue
		}

		for _, row := range index[ref] {
			entries = append(entries, s.combine(row, stream))
		}
	}

	return entries
}

// Unmatched returns the catalog identifiers no stream references, in catalog order.
func (s *Schema) Unmatched(filtered, streams *dataset.Table) []string {
	referenced := make(map[string]bool, streams.Len())

	if streams != nil {
		for _, stream := range streams.Rows {
			referenced[stream.Get(s.StreamKey)] = true
		}
	}

	out := make([]string, 0)

	if filtered == nil {
		return out
	}

	for _, row := range filtered.Rows {
		key := row.Get(s.CatalogKey)
		if key != "" && !referenced[key] {
			out = append(out, key)
		}
	}

	return out
}

// Orphans counts streams whose key matches no filtered catalog row.
func (s *Schema) Orphans(filtered, streams *dataset.Table) int {
	index := s.index(filtered)
	count := 0

	if streams == nil {
		return count
	}

	for _, stream := range streams.Rows {
		if len(index[stream.Get(s.StreamKey)]) == 0 {
			count++
		}
	}

	return count
}

// Table renders entries as a dataset in the schema's field order.
func (s *Schema) Table(entries []Entry) *dataset.Table {
	rows := make([]dataset.Row, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, dataset.Row(e.Attrs()))
	}

	fields := make([]string, len(s.Fields))
	copy(fields, s.Fields)

	return dataset.New(fields, rows...)
}

func (s *Schema) index(filtered *dataset.Table) map[string][]dataset.Row {
	index := make(map[string][]dataset.Row, filtered.Len())

	if filtered == nil {
		return index
	}

	for _, row := range filtered.Rows {
		key := row.Get(s.CatalogKey)
		if key == "" {
			continue
		}

		index[key] = append(index[key], row)
	}

	return index
}

func (s *Schema) combine(catalog, stream dataset.Row) Entry {
	attrs := make(map[string]string, len(catalog)+len(stream))

	for field, value := range catalog {
		attrs[s.CatalogName(field)] = value
	}

	for field, value := range stream {
		attrs[field] = value
	}

	entry := Entry{
		id:            catalog.Get(s.CatalogKey),
		title:         firstNonEmpty(attrs[FieldTitle], attrs[s.CatalogName(FieldTitle)]),
		url:           stream.Get(FieldURL),
		name:          catalog.Get(FieldName),
		languages:     catalog.Get(s.LanguageField),
		broadcastArea: catalog.Get(FieldBroadcastArea),
		logo:          catalog.Get(FieldLogo),
		quality:       firstNonEmpty(stream.Get(FieldQuality), stream.Get(FieldFormat)),
		userAgent:     stream.Get(FieldUserAgent),
		referrer:      stream.Get(FieldReferrer),
		attrs:         attrs,
	}

	if entry.title == "" {
		entry.title = firstNonEmpty(entry.name, entry.id)
	}

	return entry
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
