package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	FieldSchemaGroup = "schema_group"
	FieldSchemaName  = "schema_name"
	FieldVersion     = "version"
	FieldSchema      = "schema"
	FieldPublishedAt = "published_at"
)

// Record is one stored version of a named schema within a group.
type Record struct {
	SchemaGroup string
	SchemaName  string
	Version     string
	Schema      Document
	PublishedAt time.Time
}

// DefaultRecord is returned when no version of (name, group) has been stored.
func DefaultRecord(name, group string) Record {
	return Record{
		SchemaGroup: group,
		SchemaName:  name,
		Version:     DefaultVersion,
		Schema:      Document{},
	}
}

func RecordFilter(name, group string) Document {
	return Document{
		FieldSchemaName:  name,
		FieldSchemaGroup: group,
	}
}

func (r Record) Document() Document {
	schema := r.Schema.Clone()
	if schema == nil {
		schema = Document{}
	}
	doc := Document{
		FieldSchemaGroup: r.SchemaGroup,
		FieldSchemaName:  r.SchemaName,
		FieldVersion:     r.Version,
		FieldSchema:      map[string]any(schema),
	}
	if !r.PublishedAt.IsZero() {
		doc[FieldPublishedAt] = r.PublishedAt.UTC().Format(time.RFC3339Nano)
	}
	return doc
}

func RecordFromDocument(doc Document) (Record, error) {
	group, err := stringField(doc, FieldSchemaGroup)
	if err != nil {
		return Record{}, err
	}
	name, err := stringField(doc, FieldSchemaName)
	if err != nil {
		return Record{}, err
	}
	version, err := stringField(doc, FieldVersion)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		SchemaGroup: group,
		SchemaName:  name,
		Version:     version,
		Schema:      Document{},
	}

	if raw, ok := doc[FieldSchema]; ok && raw != nil {
		schema, ok := AsMapping(raw)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s is %s, not a mapping", ErrMalformedRecord, FieldSchema, KindOf(raw))
		}
		record.Schema = Document(schema).Clone()
	}

	if raw, ok := doc[FieldPublishedAt].(string); ok && strings.TrimSpace(raw) != "" {
		publishedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, FieldPublishedAt, err)
		}
		record.PublishedAt = publishedAt.UTC()
	}
	return record, nil
}

func stringField(doc Document, key string) (string, error) {
	raw, ok := doc[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedRecord, key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %s, not a string", ErrMalformedRecord, key, KindOf(raw))
	}
	return value, nil
}
