package document

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"

	"record-sync/core/reconcile"
	"record-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ReadFile decodes a record document from the local filesystem.
func ReadFile(name, root string) ([]reconcile.Record, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	records, err := Decode(f, DetectFormat(name, ""), root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return records, nil
}

// FetchObject downloads and decodes a record document from object storage.
func FetchObject(ctx context.Context, client storage.Client, bucket, object, root string) ([]reconcile.Record, error) {
	obj, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", object, err)
	}
	defer obj.Close()

	records, err := Decode(obj, DetectFormat(object, ""), root)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", object, err)
	}
	return records, nil
}

// ListObjects returns the names of the JSON and YAML documents under prefix,
// sorted by name.
func ListObjects(ctx context.Context, client storage.Client, bucket, prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var names []string
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		switch path.Ext(obj.Key) {
		case ".json", ".yaml", ".yml":
			names = append(names, obj.Key)
		}
	}
	sort.Strings(names)
	return names, nil
}
