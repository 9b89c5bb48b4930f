// Package records implements the record sync feature.
//
// A sync takes a remote record document and reconciles it into one local
// entity (table) through core/reconcile. New remote records are inserted,
// matched ones updated in place and local records the document no longer
// contains are deleted, each class gated by the requested operations.
//
// # Field mapping
//
// Remote fields are written to snake_case columns ("firstName" becomes
// "first_name"). The remote primary key ("id" by default) is written to the
// local key column ("remote_id" by default). Only columns that exist on the
// table are written; nested objects and arrays are ignored.
//
// # Routes
//
//   - POST /records/:entity/sync: sync the document in the request body.
//   - POST /records/:entity/sync/object: sync a document from object storage.
//   - GET /records/objects: list documents in the storage bucket.
//
// Every sync runs in one database transaction; calls for the same entity
// are serialized.
package records
