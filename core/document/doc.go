// Package document decodes remote record documents.
//
// A document is a JSON or YAML array of objects, optionally wrapped in an
// object and addressed with a dotted root path. Documents are read from
// files, request bodies or object storage. JSON is decoded with goccy/go-json
// using number literals, so integer keys keep their exact value; YAML is
// decoded with yaml.v3.
//
// Integers become int64 and reals float64. A document that is not an array
// of objects fails with reconcile.ErrMalformedRecord before any record is
// handed to the engine.
package document
