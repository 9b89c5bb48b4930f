// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so record documents can be read from AWS S3 or
// self-hosted MinIO buckets. The Client interface only carries the operations
// the application needs, which keeps the testify mock in core/storage/mocks
// small.
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - GetObject: Retrieves a document as a stream.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "records")
package storage
