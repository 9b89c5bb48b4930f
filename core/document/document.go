package document

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"record-sync/core/reconcile"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a record document.
type Format string

const (
	// FormatJSON is a JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file or object name, falling back to a
// MIME content type. JSON is the default.
func DetectFormat(name, contentType string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a document and returns the records found at root.
//
// root is a dotted path to the array inside a wrapping object, e.g.
// "data.users". An empty root expects the document itself to be an array.
// Every element must be an object; anything else fails with
// reconcile.ErrMalformedRecord.
func Decode(r io.Reader, format Format, root string) ([]reconcile.Record, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: invalid yaml: %w", reconcile.ErrMalformedRecord, err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: invalid json: %w", reconcile.ErrMalformedRecord, err)
		}
	}
	return Records(normalize(doc), root)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, format Format, root string) ([]reconcile.Record, error) {
	return Decode(bytes.NewReader(data), format, root)
}

// Records extracts the record array at root from an already decoded document.
func Records(doc any, root string) ([]reconcile.Record, error) {
	node := doc
	if root != "" {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: root %q: document is not an object", reconcile.ErrMalformedRecord, root)
		}
		value, found := reconcile.RemoteValue(obj, root)
		if !found {
			return nil, fmt.Errorf("%w: root %q not found", reconcile.ErrMalformedRecord, root)
		}
		node = value
	}

	items, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of records, got %s", reconcile.ErrMalformedRecord, kindOf(node))
	}

	records := make([]reconcile.Record, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %s, not an object", reconcile.ErrMalformedRecord, i, kindOf(item))
		}
		records[i] = obj
	}
	return records, nil
}

// normalize converts decoder specific values into the plain shapes the
// engine expects: map[string]any objects, int64 integers and float64 reals.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case map[any]any:
		obj := make(map[string]any, len(t))
		for k, item := range t {
			obj[fmt.Sprint(k)] = normalize(item)
		}
		return obj
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int:
		return int64(t)
	case uint64:
		return t
	default:
		return v
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int64, float64, uint64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
